package main

import (
	"strings"
	"testing"

	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
)

func TestEventDetail(t *testing.T) {
	ev := kyoku.Event{Kind: kyoku.EventDiscard, Tile: mahjong.MustParseTiles("5m")[0], Tsumogiri: true}
	if got := eventDetail(ev); got != "5m (tsumogiri)" {
		t.Fatalf("discard detail = %q", got)
	}
	rows := eventRows([]kyoku.Event{ev})
	if len(rows) != 2 || rows[1][2] != "discard" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestOutcomeText(t *testing.T) {
	out := kyoku.Outcome{
		Kind:   kyoku.OutcomeExhausted,
		Tenpai: map[mahjong.Seat][]mahjong.Tile{mahjong.SeatWest: mahjong.MustParseTiles("123m")},
	}
	if got := outcomeText(out); !strings.Contains(got, "west tenpai") {
		t.Fatalf("outcome = %q", got)
	}
	if got := outcomeText(kyoku.Outcome{Kind: kyoku.OutcomeFourWinds}); !strings.Contains(got, "four_winds") {
		t.Fatalf("abort outcome = %q", got)
	}
}
