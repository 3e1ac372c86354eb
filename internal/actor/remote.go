package actor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
)

var (
	ErrNotOffered    = errors.New("not_offered")
	ErrInvalidChoice = errors.New("invalid_choice")
)

// Outbox carries what a remote seat must see. Transports implement it.
type Outbox interface {
	Offer(kyoku.Request)
	Deliver(kyoku.Event)
}

// Timeouts bound how long a remote seat may think. Zero waits forever.
type Timeouts struct {
	Discard time.Duration
	Call    time.Duration
}

type pending struct {
	req      kyoku.Request
	deadline time.Time
}

// Remote is a seat played over the network. Answers arrive through Submit.
// Once a discard or call offer passes its deadline the seat answers with the
// default: discard the drawn (or last) tile, or pass.
type Remote struct {
	seat     mahjong.Seat
	out      Outbox
	timeouts Timeouts
	now      func() time.Time

	mu       sync.Mutex
	pending  map[kyoku.ActionKind]pending
	inbox    map[kyoku.ActionKind]kyoku.Action
	timedOut int
}

func NewRemote(seat mahjong.Seat, out Outbox, t Timeouts) *Remote {
	return &Remote{
		seat:     seat,
		out:      out,
		timeouts: t,
		now:      time.Now,
		pending:  map[kyoku.ActionKind]pending{},
		inbox:    map[kyoku.ActionKind]kyoku.Action{},
	}
}

func (r *Remote) Seat() mahjong.Seat { return r.seat }

func (r *Remote) Request(req kyoku.Request) {
	r.mu.Lock()
	p := pending{req: req}
	if d := r.timeoutFor(req.Kind); d > 0 {
		p.deadline = r.now().Add(d)
	}
	r.pending[req.Kind] = p
	r.mu.Unlock()
	if r.out != nil {
		r.out.Offer(req)
	}
}

func (r *Remote) timeoutFor(k kyoku.ActionKind) time.Duration {
	switch {
	case k.Priority() > 0:
		return r.timeouts.Call
	case k == kyoku.ActDiscard:
		return r.timeouts.Discard
	}
	return 0
}

// Submit records an answer to an outstanding offer.
func (r *Remote) Submit(act kyoku.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if act.Kind == kyoku.ActPass {
		for k := range r.pending {
			if k.Priority() > 0 {
				r.inbox[kyoku.ActPass] = act
				return nil
			}
		}
		return fmt.Errorf("%w: pass", ErrNotOffered)
	}
	p, ok := r.pending[act.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOffered, act.Kind)
	}
	if !p.req.Offers(act) {
		return fmt.Errorf("%w: %s", ErrInvalidChoice, act.Kind)
	}
	if act.Kind.Priority() > 0 {
		delete(r.inbox, kyoku.ActPass)
	}
	r.inbox[act.Kind] = act
	return nil
}

// Pending lists the offers still open for this seat.
func (r *Remote) Pending() []kyoku.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kyoku.Request, 0, len(r.pending))
	for _, k := range kyoku.AllKinds {
		if p, ok := r.pending[k]; ok {
			out = append(out, p.req)
		}
	}
	return out
}

func (r *Remote) Received(k kyoku.ActionKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inbox[k]; ok {
		return true
	}
	act, ok := r.fallback(k)
	if !ok {
		return false
	}
	r.timedOut++
	r.inbox[k] = act
	return true
}

// fallback builds the default answer for k once its offer has expired.
func (r *Remote) fallback(k kyoku.ActionKind) (kyoku.Action, bool) {
	now := r.now()
	expired := func(p pending) bool { return !p.deadline.IsZero() && !now.Before(p.deadline) }
	switch k {
	case kyoku.ActPass:
		for kind := range r.inbox {
			if kind.Priority() > 0 {
				return kyoku.Action{}, false
			}
		}
		for kind, p := range r.pending {
			if kind.Priority() > 0 && expired(p) {
				return kyoku.Action{Kind: kyoku.ActPass, Tile: mahjong.NoTile}, true
			}
		}
	case kyoku.ActDiscard:
		p, ok := r.pending[kyoku.ActDiscard]
		if ok && expired(p) && len(p.req.Indices) > 0 {
			return kyoku.Action{Kind: kyoku.ActDiscard, Index: p.req.Indices[len(p.req.Indices)-1], Tile: mahjong.NoTile}, true
		}
	}
	return kyoku.Action{}, false
}

func (r *Remote) Fetch(k kyoku.ActionKind) (kyoku.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	act, ok := r.inbox[k]
	delete(r.inbox, k)
	if !ok {
		return act, false
	}
	if k == kyoku.ActPass {
		for kind := range r.pending {
			if kind.Priority() > 0 {
				delete(r.pending, kind)
			}
		}
	} else {
		delete(r.pending, k)
	}
	return act, true
}

func (r *Remote) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.inbox)
	clear(r.pending)
}

func (r *Remote) Notify(ev kyoku.Event) {
	if r.out != nil {
		r.out.Deliver(ev)
	}
}

// TimedOut counts answers the seat produced on its own.
func (r *Remote) TimedOut() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timedOut
}
