// Package actor provides the seats a kyoku controller talks to: an in-process
// AI and a remote seat fed by a transport.
package actor

import (
	"sync"

	"github.com/rs/zerolog"

	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
)

// AI answers every request as soon as it arrives. It wins whenever it can,
// takes nine kinds, never declares reach and passes calls.
type AI struct {
	seat  mahjong.Seat
	log   zerolog.Logger
	mu    sync.Mutex
	inbox map[kyoku.ActionKind]kyoku.Action
	seen  uint64
}

func NewAI(seat mahjong.Seat, log zerolog.Logger) *AI {
	return &AI{
		seat:  seat,
		log:   log.With().Str("seat", seat.String()).Str("actor", "ai").Logger(),
		inbox: map[kyoku.ActionKind]kyoku.Action{},
	}
}

func (a *AI) Request(req kyoku.Request) {
	act, ok := a.decide(req)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if act.Kind == kyoku.ActPass {
		for k := range a.inbox {
			if k.Priority() > 0 {
				return
			}
		}
	}
	a.inbox[act.Kind] = act
}

func (a *AI) decide(req kyoku.Request) (kyoku.Action, bool) {
	switch req.Kind {
	case kyoku.ActTsumo, kyoku.ActRon, kyoku.ActNineKinds:
		a.log.Debug().Str("kind", string(req.Kind)).Msg("ai accepts")
		return kyoku.Action{Kind: req.Kind, Tile: mahjong.NoTile}, true
	case kyoku.ActOpenKan, kyoku.ActPon, kyoku.ActChi:
		return kyoku.Action{Kind: kyoku.ActPass, Tile: mahjong.NoTile}, true
	case kyoku.ActDiscard:
		if len(req.Indices) == 0 {
			return kyoku.Action{}, false
		}
		return kyoku.Action{Kind: kyoku.ActDiscard, Index: pickDiscard(req), Tile: mahjong.NoTile}, true
	}
	return kyoku.Action{}, false
}

// pickDiscard throws the first isolated honor or terminal among the offered
// indices, then any isolated tile, then the last offered index.
func pickDiscard(req kyoku.Request) int {
	tiles := append([]mahjong.Tile(nil), req.View.Hand...)
	if req.View.Drawn != mahjong.NoTile {
		tiles = append(tiles, req.View.Drawn)
	}
	counts := mahjong.Counts(tiles)
	fallback := -1
	for _, i := range req.Indices {
		if i < 0 || i >= len(tiles) {
			continue
		}
		t := tiles[i]
		if !isolated(counts, t) {
			continue
		}
		if t.IsYaochu() {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		return fallback
	}
	return req.Indices[len(req.Indices)-1]
}

func isolated(c [mahjong.KindCount]int, t mahjong.Tile) bool {
	if c[t] != 1 {
		return false
	}
	if t.IsHonor() {
		return true
	}
	n := t.Number()
	for d := -2; d <= 2; d++ {
		if d == 0 || n+d < 1 || n+d > 9 {
			continue
		}
		if c[t+mahjong.Tile(d)] > 0 {
			return false
		}
	}
	return true
}

func (a *AI) Received(k kyoku.ActionKind) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.inbox[k]
	return ok
}

func (a *AI) Fetch(k kyoku.ActionKind) (kyoku.Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	act, ok := a.inbox[k]
	delete(a.inbox, k)
	return act, ok
}

func (a *AI) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.inbox)
}

func (a *AI) Notify(ev kyoku.Event) {
	a.mu.Lock()
	a.seen = ev.Seq
	a.mu.Unlock()
}

// LastSeq is the sequence number of the latest event delivered to the seat.
func (a *AI) LastSeq() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seen
}
