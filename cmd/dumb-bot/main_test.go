package main

import (
	"testing"

	"kyoku-table/internal/config"
)

func TestDecide(t *testing.T) {
	act, ok := decide(offer{Kind: "discard", Indices: []int{0, 1, 13}})
	if !ok || act.Kind != "discard" || act.Index != 13 {
		t.Fatalf("discard = %+v %v", act, ok)
	}
	for _, k := range []string{"ron", "pon", "chi", "open_kan"} {
		act, ok := decide(offer{Kind: k})
		if !ok || act.Kind != "pass" {
			t.Fatalf("%s = %+v %v, want pass", k, act, ok)
		}
	}
	if _, ok := decide(offer{Kind: "reach", Indices: []int{2}}); ok {
		t.Fatal("bot must not reach")
	}
}

func TestSeatURL(t *testing.T) {
	got, err := seatURL(config.BotConfig{WSURL: "ws://localhost:8080/ws/tables/", TableID: "t1", Seat: "west"})
	if err != nil {
		t.Fatalf("seatURL error = %v", err)
	}
	if got != "ws://localhost:8080/ws/tables/t1/seats/west" {
		t.Fatalf("seatURL = %q", got)
	}
	if _, err := seatURL(config.BotConfig{WSURL: "http://localhost", TableID: "t1", Seat: "east"}); err == nil {
		t.Fatal("expected scheme error")
	}
}
