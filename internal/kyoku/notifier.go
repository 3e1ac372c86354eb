package kyoku

import (
	"context"

	"github.com/rs/zerolog"

	"kyoku-table/internal/mahjong"
)

// Sink receives every broadcast after the seats have. Persistence and
// spectator feeds hang off it.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Notifier fans each accepted action out to all four seats, then to sinks.
type Notifier struct {
	actors [mahjong.SeatCount]Actor
	sinks  []Sink
	seq    uint64
	ended  bool
	log    zerolog.Logger
}

func NewNotifier(actors [mahjong.SeatCount]Actor, sinks []Sink, log zerolog.Logger) *Notifier {
	return &Notifier{actors: actors, sinks: sinks, log: log}
}

// Broadcast stamps ev and delivers it. Nothing goes out after the round-end
// event.
func (n *Notifier) Broadcast(ctx context.Context, ev Event) (Event, error) {
	if n.ended {
		return ev, ErrRoundOver
	}
	n.seq++
	ev.Seq = n.seq
	if ev.Kind == EventRoundEnd {
		n.ended = true
	}
	for _, a := range n.actors {
		a.Notify(ev)
	}
	for _, s := range n.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			n.log.Warn().Err(err).Uint64("seq", ev.Seq).Str("kind", string(ev.Kind)).Msg("event sink failed")
		}
	}
	return ev, nil
}

func (n *Notifier) Seq() uint64 { return n.seq }

func discardEvent(seat mahjong.Seat, d mahjong.Discard, underReach bool) Event {
	return Event{Kind: EventDiscard, Seat: seat, Tile: d.Tile, Tsumogiri: d.Tsumogiri, UnderReach: underReach}
}

func reachEvent(seat mahjong.Seat, d mahjong.Discard) Event {
	return Event{Kind: EventReach, Seat: seat, Tile: d.Tile, Tsumogiri: d.Tsumogiri, IsLastTile: d.Tsumogiri}
}

func callEvent(seat mahjong.Seat, m mahjong.Meld) Event {
	return Event{Kind: EventCall, Seat: seat, Tile: m.Called, Meld: &m}
}

func roundEndEvent(o Outcome) Event {
	return Event{Kind: EventRoundEnd, Seat: o.Seat, Tile: mahjong.NoTile, Outcome: &o}
}
