package spectatorpush

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestFormatMessageDiscard(t *testing.T) {
	msg, ok := FormatMessage(NormalizedEvent{
		EventType:  "discard",
		TableID:    "tbl_0123456789abcdef",
		RoundID:    "01J000000000000000000000",
		ServerTS:   1700000000000,
		Seq:        12,
		Seat:       intPtr(2),
		Tile:       "5m",
		Tsumogiri:  true,
		UnderReach: true,
	})
	if !ok {
		t.Fatal("discard should format")
	}
	if msg.Title != "Discard · T:tbl_012345" {
		t.Fatalf("unexpected title: %q", msg.Title)
	}
	if msg.Content != "west discards 5m" || !strings.HasSuffix(msg.Description, "(tsumogiri)") {
		t.Fatalf("unexpected text: %q / %q", msg.Content, msg.Description)
	}
	if msg.Timestamp != "2023-11-14T22:13:20Z" || msg.Footer != defaultFooter {
		t.Fatalf("unexpected timestamp/footer: %q %q", msg.Timestamp, msg.Footer)
	}
	var sawReach, sawRound bool
	for _, f := range msg.Fields {
		sawReach = sawReach || (f.Name == "Reach" && f.Value == "yes")
		sawRound = sawRound || (f.Name == "Round" && f.Value == "01J0000000")
	}
	if !sawReach || !sawRound {
		t.Fatalf("missing fields: %+v", msg.Fields)
	}
}

func TestFormatMessageCall(t *testing.T) {
	msg, ok := FormatMessage(NormalizedEvent{
		EventType: "call",
		TableID:   "tbl_1",
		Seat:      intPtr(1),
		MeldKind:  "pon",
		MeldTiles: "777p",
	})
	if !ok || msg.Color != colorCall {
		t.Fatalf("call: ok=%v color=%x", ok, msg.Color)
	}
	if msg.Description != "south calls pon 777p" {
		t.Fatalf("unexpected description: %q", msg.Description)
	}
}

func TestFormatMessageRoundEndOutcomes(t *testing.T) {
	cases := []struct {
		ev    NormalizedEvent
		text  string
		color int
	}{
		{NormalizedEvent{Outcome: "ron", Winners: []string{"south", "west"}}, "south, west wins by ron", colorWin},
		{NormalizedEvent{Outcome: "exhausted"}, "exhaustive draw", colorDraw},
		{NormalizedEvent{Outcome: "four_winds"}, "aborted: four_winds", colorCritical},
		{NormalizedEvent{Outcome: "three_ron", Winners: []string{"east", "south", "west"}}, "aborted by three rons (east, south, west)", colorCritical},
	}
	for _, tc := range cases {
		tc.ev.EventType = "round_end"
		tc.ev.TableID = "tbl_1"
		msg, ok := FormatMessage(tc.ev)
		if !ok {
			t.Fatalf("%s should format", tc.ev.Outcome)
		}
		if msg.Content != tc.text || msg.Color != tc.color {
			t.Fatalf("%s: got %q %x, want %q %x", tc.ev.Outcome, msg.Content, msg.Color, tc.text, tc.color)
		}
	}
}

func TestFormatMessageTableClosedIncludesReason(t *testing.T) {
	msg, ok := FormatMessage(NormalizedEvent{
		EventType:   "table_closed",
		TableID:     "tbl_1",
		TableStatus: "failed",
		CloseReason: "server_shutdown",
	})
	if !ok {
		t.Fatal("table_closed should format")
	}
	if msg.Description != "Table closed (failed)." {
		t.Fatalf("unexpected description: %q", msg.Description)
	}
	var reason string
	for _, f := range msg.Fields {
		if f.Name == "Reason" {
			reason = f.Value
		}
	}
	if reason != "server_shutdown" {
		t.Fatalf("missing reason field: %+v", msg.Fields)
	}
}

func TestFormatMessageSkipsUnknown(t *testing.T) {
	if _, ok := FormatMessage(NormalizedEvent{EventType: "ping"}); ok {
		t.Fatal("unknown event types should be skipped")
	}
}
