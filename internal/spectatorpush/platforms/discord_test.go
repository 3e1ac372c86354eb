package platforms

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestDiscordAdapterPayload(t *testing.T) {
	rc := newReceiver(http.StatusNoContent, "")

	adapter := NewDiscordAdapter(rc.client())
	err := adapter.Send(context.Background(), "https://discord.example/webhook", "", Message{
		Title:       "t",
		Content:     "east discards 5m",
		Description: "desc",
		Color:       12345,
		Timestamp:   "2025-01-01T00:00:00Z",
		Footer:      "footer-text",
		Fields: []Field{
			{Name: "Tile", Value: "5m", Inline: true},
			{Name: "Round", Value: "01J", Inline: false},
		},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	got := rc.only(t).body
	if got["content"] != "east discards 5m" {
		t.Fatalf("unexpected content: %v", got["content"])
	}
	embeds, ok := got["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("unexpected embeds: %#v", got["embeds"])
	}
	embed, ok := embeds[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected embed type: %#v", embeds[0])
	}
	if embed["description"] != "desc" {
		t.Fatalf("unexpected description: %v", embed["description"])
	}
	if embed["color"] != float64(12345) {
		t.Fatalf("unexpected color: %v", embed["color"])
	}
	if embed["timestamp"] != "2025-01-01T00:00:00Z" {
		t.Fatalf("unexpected timestamp: %v", embed["timestamp"])
	}
	footer, ok := embed["footer"].(map[string]any)
	if !ok || footer["text"] != "footer-text" {
		t.Fatalf("unexpected footer: %#v", embed["footer"])
	}
	fields, ok := embed["fields"].([]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("unexpected fields: %#v", embed["fields"])
	}
	second, ok := fields[1].(map[string]any)
	if !ok || second["inline"] != false {
		t.Fatalf("expected second field inline=false, got %#v", fields[1])
	}
}

func TestDiscordAdapterReportsStatus(t *testing.T) {
	rc := newReceiver(http.StatusTooManyRequests, `{"retry_after":1}`)
	err := NewDiscordAdapter(rc.client()).Send(context.Background(), "https://discord.example/webhook", "", Message{Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
	rc.only(t)
}
