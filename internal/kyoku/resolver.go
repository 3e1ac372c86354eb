package kyoku

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kyoku-table/internal/mahjong"
)

// Decision is one negotiation window: who may answer and with what.
type Decision struct {
	from     mahjong.Seat
	eligible map[mahjong.Seat][]ActionKind
}

// NewDecision validates eligibility for a window opened by from. Chi may
// only be offered downstream of from, and from never answers its own tile.
func NewDecision(from mahjong.Seat, offers map[mahjong.Seat][]ActionKind) (*Decision, error) {
	d := &Decision{from: from, eligible: make(map[mahjong.Seat][]ActionKind)}
	for seat, kinds := range offers {
		if !seat.Valid() || seat == from {
			return nil, fmt.Errorf("%w: %s cannot answer its own discard", ErrProtocolViolation, seat)
		}
		for _, k := range kinds {
			if k.Priority() == 0 {
				return nil, fmt.Errorf("%w: %s is not a call", ErrUnknownAction, k)
			}
		}
		var keep []ActionKind
		for _, k := range CallKinds {
			if !hasKind(kinds, k) {
				continue
			}
			if k == ActChi && seat != from.Next() {
				return nil, fmt.Errorf("%w: %s", ErrChiNotDownstream, seat)
			}
			keep = append(keep, k)
		}
		if len(keep) > 0 {
			d.eligible[seat] = keep
		}
	}
	return d, nil
}

func (d *Decision) Empty() bool { return len(d.eligible) == 0 }

// Kinds returns the offers for seat, highest priority first.
func (d *Decision) Kinds(seat mahjong.Seat) []ActionKind { return d.eligible[seat] }

// order is the polling rotation starting downstream of the discarder.
func (d *Decision) order() []mahjong.Seat {
	var out []mahjong.Seat
	for _, s := range d.from.Others() {
		if _, ok := d.eligible[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Claim is an accepted answer from one seat.
type Claim struct {
	Seat   mahjong.Seat
	Action Action
}

// Resolution is what a window settled on. Rons holds every accepted win in
// rotation order; Call is set only when no seat won.
type Resolution struct {
	Rons      []Claim
	Call      *Claim
	MissedRon []mahjong.Seat
}

type Resolver struct {
	actors [mahjong.SeatCount]Actor
	poll   poller
	log    zerolog.Logger
}

func NewResolver(actors [mahjong.SeatCount]Actor, p poller, log zerolog.Logger) *Resolver {
	return &Resolver{actors: actors, poll: p, log: log}
}

// Resolve polls the eligible seats until each has answered or been made
// moot by a strictly higher accepted claim. Equal-priority exclusive claims
// cannot both stand; seeing two is fatal.
func (r *Resolver) Resolve(ctx context.Context, d *Decision) (Resolution, error) {
	var res Resolution
	if d.Empty() {
		return res, nil
	}
	waiting := d.order()
	var accepted []Claim
	best := 0

	sweep := func() bool {
		var open []mahjong.Seat
		for _, seat := range waiting {
			act, answered := r.answer(seat, d.Kinds(seat))
			if !answered {
				open = append(open, seat)
				continue
			}
			if act.Kind == ActPass {
				continue
			}
			accepted = append(accepted, Claim{Seat: seat, Action: act})
			if p := act.Kind.Priority(); p > best {
				best = p
			}
		}
		waiting = waiting[:0]
		for _, seat := range open {
			if topPriority(d.Kinds(seat)) < best {
				r.log.Debug().Str("seat", seat.String()).Int("best", best).Msg("claim superseded")
				continue
			}
			waiting = append(waiting, seat)
		}
		return len(waiting) == 0
	}
	if err := r.poll.until(ctx, sweep); err != nil {
		return res, err
	}

	for _, c := range accepted {
		if c.Action.Kind == ActRon {
			res.Rons = append(res.Rons, c)
		}
	}
	for _, seat := range d.order() {
		if hasKind(d.Kinds(seat), ActRon) && !claimed(res.Rons, seat) {
			res.MissedRon = append(res.MissedRon, seat)
		}
	}
	if len(res.Rons) > 0 {
		return res, nil
	}
	for i := range accepted {
		c := accepted[i]
		if c.Action.Kind.Priority() != best {
			continue
		}
		if res.Call != nil {
			return res, fmt.Errorf("%w: %s and %s both claimed %s", ErrProtocolViolation, res.Call.Seat, c.Seat, c.Action.Kind)
		}
		res.Call = &c
	}
	return res, nil
}

// answer checks the seat's inboxes, taking a pass before any claim.
func (r *Resolver) answer(seat mahjong.Seat, kinds []ActionKind) (Action, bool) {
	a := r.actors[seat]
	if a.Received(ActPass) {
		act, _ := a.Fetch(ActPass)
		act.Kind = ActPass
		return act, true
	}
	for _, k := range kinds {
		if a.Received(k) {
			act, ok := a.Fetch(k)
			if !ok {
				continue
			}
			act.Kind = k
			return act, true
		}
	}
	return Action{}, false
}

func topPriority(kinds []ActionKind) int {
	top := 0
	for _, k := range kinds {
		if p := k.Priority(); p > top {
			top = p
		}
	}
	return top
}

func hasKind(kinds []ActionKind, k ActionKind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

func claimed(claims []Claim, seat mahjong.Seat) bool {
	for _, c := range claims {
		if c.Seat == seat {
			return true
		}
	}
	return false
}
