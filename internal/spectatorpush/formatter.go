package spectatorpush

import (
	"fmt"
	"strings"
	"time"

	"kyoku-table/internal/mahjong"
)

const (
	colorDiscard  = 0x5865F2
	colorCall     = 0x3BA55D
	colorReach    = 0xFEE75C
	colorWin      = 0x57F287
	colorDraw     = 0x99AAB5
	colorCritical = 0xED4245

	shortIDLimit  = 10
	defaultFooter = "kyoku-table spectator push"
)

// FormatMessage renders one public event. Unknown event types are skipped.
func FormatMessage(ev NormalizedEvent) (FormattedMessage, bool) {
	tableShort := shortID(fallback(ev.TableID, "unknown"), shortIDLimit)
	seat := seatText(ev.Seat)
	base := FormattedMessage{
		Timestamp: eventTimestamp(ev.ServerTS),
		Footer:    defaultFooter,
	}
	fields := []MessageField{
		{Name: "Seat", Value: seat, Inline: true},
		{Name: "Seq", Value: fmt.Sprint(ev.Seq), Inline: true},
	}

	switch ev.EventType {
	case "discard":
		base.Title = fmt.Sprintf("Discard · T:%s", tableShort)
		base.Content = fmt.Sprintf("%s discards %s", seat, fallback(ev.Tile, "?"))
		base.Description = base.Content
		if ev.Tsumogiri {
			base.Description += " (tsumogiri)"
		}
		base.Color = colorDiscard
		fields = append(fields, MessageField{Name: "Tile", Value: fallback(ev.Tile, "-"), Inline: true})
		if ev.UnderReach {
			fields = append(fields, MessageField{Name: "Reach", Value: "yes", Inline: true})
		}
	case "call":
		base.Title = fmt.Sprintf("Call · T:%s", tableShort)
		base.Content = fmt.Sprintf("%s calls %s", seat, fallback(ev.MeldKind, "meld"))
		base.Description = fmt.Sprintf("%s calls %s %s", seat, fallback(ev.MeldKind, "meld"), ev.MeldTiles)
		base.Color = colorCall
		fields = append(fields,
			MessageField{Name: "Meld", Value: fallback(ev.MeldKind, "-"), Inline: true},
			MessageField{Name: "Tiles", Value: fallback(ev.MeldTiles, "-"), Inline: true},
		)
	case "reach":
		base.Title = fmt.Sprintf("Reach · T:%s", tableShort)
		base.Content = fmt.Sprintf("%s declares reach", seat)
		base.Description = fmt.Sprintf("%s declares reach on %s", seat, fallback(ev.Tile, "?"))
		base.Color = colorReach
	case "round_end":
		base.Title = fmt.Sprintf("Round End · T:%s", tableShort)
		base.Content = outcomeText(ev)
		base.Description = base.Content
		base.Color = outcomeColor(ev.Outcome)
		fields = []MessageField{{Name: "Outcome", Value: fallback(ev.Outcome, "-"), Inline: true}}
		if len(ev.Winners) > 0 {
			fields = append(fields, MessageField{Name: "Winners", Value: strings.Join(ev.Winners, ", "), Inline: true})
		}
	case "table_closed":
		base.Title = fmt.Sprintf("Table Closed · T:%s", tableShort)
		base.Content = "table closed"
		base.Description = fmt.Sprintf("Table closed (%s).", fallback(ev.TableStatus, "finished"))
		base.Color = colorCritical
		fields = []MessageField{{Name: "Status", Value: fallback(ev.TableStatus, "finished"), Inline: true}}
		if ev.Outcome != "" {
			fields = append(fields, MessageField{Name: "Outcome", Value: ev.Outcome, Inline: true})
		}
		if ev.CloseReason != "" {
			fields = append(fields, MessageField{Name: "Reason", Value: ev.CloseReason, Inline: true})
		}
	default:
		return FormattedMessage{}, false
	}
	if ev.RoundID != "" {
		fields = append(fields, MessageField{Name: "Round", Value: shortID(ev.RoundID, shortIDLimit), Inline: true})
	}
	base.Fields = fields
	return base, true
}

func outcomeText(ev NormalizedEvent) string {
	switch {
	case len(ev.Winners) > 0 && ev.Outcome == "three_ron":
		return "aborted by three rons (" + strings.Join(ev.Winners, ", ") + ")"
	case len(ev.Winners) > 0:
		return strings.Join(ev.Winners, ", ") + " wins by " + ev.Outcome
	case ev.Outcome == "exhausted":
		return "exhaustive draw"
	}
	return "aborted: " + fallback(ev.Outcome, "unknown")
}

func outcomeColor(kind string) int {
	switch kind {
	case "tsumo", "ron":
		return colorWin
	case "exhausted":
		return colorDraw
	}
	return colorCritical
}

func seatText(seat *int) string {
	if seat == nil {
		return "-"
	}
	return mahjong.Seat(*seat).String()
}

func shortID(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	return v[:max]
}

func eventTimestamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
