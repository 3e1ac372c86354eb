package kyoku

import (
	"context"
	"sync"
	"testing"
	"time"

	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/table"
)

// policy answers one request. Returning false leaves the offer unanswered.
type policy func(req Request) (Action, bool)

type scriptActor struct {
	mu       sync.Mutex
	policy   policy
	inbox    map[ActionKind]Action
	delay    map[ActionKind]int
	requests []Request
	events   []Event
}

func newScript(p policy) *scriptActor {
	return &scriptActor{policy: p, inbox: map[ActionKind]Action{}, delay: map[ActionKind]int{}}
}

func (a *scriptActor) Request(req Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	if a.policy == nil {
		return
	}
	if act, ok := a.policy(req); ok {
		a.store(act)
	}
}

// store keeps a claim over a pass so one window has one answer.
func (a *scriptActor) store(act Action) {
	if act.Kind == ActPass {
		for k := range a.inbox {
			if k.Priority() > 0 {
				return
			}
		}
	} else if act.Kind.Priority() > 0 {
		delete(a.inbox, ActPass)
	}
	a.inbox[act.Kind] = act
}

func (a *scriptActor) put(act Action) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store(act)
}

func (a *scriptActor) Received(k ActionKind) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.inbox[k]; !ok {
		return false
	}
	if a.delay[k] > 0 {
		a.delay[k]--
		return false
	}
	return true
}

func (a *scriptActor) Fetch(k ActionKind) (Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	act, ok := a.inbox[k]
	delete(a.inbox, k)
	return act, ok
}

func (a *scriptActor) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inbox = map[ActionKind]Action{}
}

func (a *scriptActor) Notify(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *scriptActor) requestsOf(k ActionKind) []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Request
	for _, r := range a.requests {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}

// tsumogiri discards the last offered index and passes every call.
func tsumogiri(req Request) (Action, bool) {
	switch {
	case req.Kind == ActDiscard:
		return Action{Kind: ActDiscard, Index: req.Indices[len(req.Indices)-1]}, true
	case req.Kind.Priority() > 0:
		return Action{Kind: ActPass}, true
	}
	return Action{}, false
}

// accepting takes the listed offers and otherwise plays tsumogiri.
func accepting(kinds ...ActionKind) policy {
	return func(req Request) (Action, bool) {
		if hasKind(kinds, req.Kind) {
			act := Action{Kind: req.Kind}
			if len(req.Indices) > 0 {
				act.Index = req.Indices[len(req.Indices)-1]
			}
			if len(req.Sets) > 0 {
				act.Indices = req.Sets[0]
			}
			if len(req.Tiles) > 0 {
				act.Tile = req.Tiles[0]
			}
			return act, true
		}
		return tsumogiri(req)
	}
}

func actors(ps ...policy) ([mahjong.SeatCount]Actor, [mahjong.SeatCount]*scriptActor) {
	var as [mahjong.SeatCount]Actor
	var ss [mahjong.SeatCount]*scriptActor
	for i := range as {
		p := policy(tsumogiri)
		if i < len(ps) && ps[i] != nil {
			p = ps[i]
		}
		ss[i] = newScript(p)
		as[i] = ss[i]
	}
	return as, ss
}

func board(t *testing.T, hands [4]string, live, dead string) *table.Table {
	t.Helper()
	var s table.Setup
	for i, h := range hands {
		s.Hands[i] = mahjong.MustParseTiles(h)
	}
	s.Live = mahjong.MustParseTiles(live)
	s.Dead = mahjong.MustParseTiles(dead)
	tb, err := table.New(s)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tb
}

// run plays one round and returns the outcome plus an ordered trace of
// entered states and broadcast events.
func run(t *testing.T, o Oracle, as [mahjong.SeatCount]Actor) (Outcome, []string) {
	t.Helper()
	var trace []string
	opts := Options{
		RoundID: "test",
		PollMin: time.Millisecond,
		PollMax: 4 * time.Millisecond,
		OnTransition: func(_, to State) {
			trace = append(trace, to.String())
		},
		Sinks: []Sink{SinkFunc(func(_ context.Context, ev Event) error {
			e := "ev:" + string(ev.Kind)
			if ev.Meld != nil {
				e += ":" + string(ev.Meld.Kind)
			}
			trace = append(trace, e)
			return nil
		})},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := New(o, as, opts).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return out, trace
}

func assertSingleEnd(t *testing.T, ss [mahjong.SeatCount]*scriptActor) {
	t.Helper()
	for seat, a := range ss {
		ends := 0
		for i, ev := range a.events {
			if ev.Seq != uint64(i+1) {
				t.Fatalf("seat %d event %d seq = %d", seat, i, ev.Seq)
			}
			if ev.Kind == EventRoundEnd {
				ends++
				if i != len(a.events)-1 {
					t.Fatalf("seat %d saw events after round end", seat)
				}
			}
		}
		if ends != 1 {
			t.Fatalf("seat %d saw %d round-end events, want 1", seat, ends)
		}
		if len(a.events) != len(ss[0].events) {
			t.Fatalf("seat %d saw %d events, seat 0 saw %d", seat, len(a.events), len(ss[0].events))
		}
	}
}

func indexOf(trace []string, from int, want string) int {
	for i := from; i < len(trace); i++ {
		if trace[i] == want {
			return i
		}
	}
	return -1
}
