package kyoku

import (
	"fmt"

	"kyoku-table/internal/mahjong"
)

// ActionKind names both an offer and the answer that accepts it.
type ActionKind string

const (
	ActDiscard   ActionKind = "discard"
	ActReach     ActionKind = "reach"
	ActTsumo     ActionKind = "tsumo"
	ActNineKinds ActionKind = "nine_kinds"
	ActAddedKan  ActionKind = "added_kan"
	ActClosedKan ActionKind = "closed_kan"
	ActRon       ActionKind = "ron"
	ActOpenKan   ActionKind = "open_kan"
	ActPon       ActionKind = "pon"
	ActChi       ActionKind = "chi"
	ActPass      ActionKind = "pass"
)

// TurnKinds are answered by the seat holding the turn.
var TurnKinds = []ActionKind{ActNineKinds, ActTsumo, ActAddedKan, ActClosedKan, ActReach, ActDiscard}

// CallKinds are answered by the other seats after a discard, highest
// priority first.
var CallKinds = []ActionKind{ActRon, ActOpenKan, ActPon, ActChi}

// AllKinds lists every inbox an actor keeps.
var AllKinds = []ActionKind{
	ActNineKinds, ActTsumo, ActAddedKan, ActClosedKan, ActReach, ActDiscard,
	ActRon, ActOpenKan, ActPon, ActChi, ActPass,
}

// Priority orders call-window claims. Zero means the kind never competes.
func (k ActionKind) Priority() int {
	switch k {
	case ActRon:
		return 4
	case ActOpenKan:
		return 3
	case ActPon:
		return 2
	case ActChi:
		return 1
	}
	return 0
}

func (k ActionKind) Valid() bool {
	for _, v := range AllKinds {
		if v == k {
			return true
		}
	}
	return false
}

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return k, nil
}

// Action is an actor's answer. Index addresses a hand tile for discard and
// reach, Indices the two hand tiles for pon and chi, Tile the kind for kans.
type Action struct {
	Kind    ActionKind   `json:"kind"`
	Index   int          `json:"index,omitempty"`
	Indices []int        `json:"indices,omitempty"`
	Tile    mahjong.Tile `json:"tile"`
}

// Request offers one action kind to one seat together with the choices the
// rules allow and the seat's view of the table.
type Request struct {
	Seat    mahjong.Seat   `json:"seat"`
	Kind    ActionKind     `json:"kind"`
	Target  mahjong.Tile   `json:"target"`
	Tiles   []mahjong.Tile `json:"tiles,omitempty"`
	Indices []int          `json:"indices,omitempty"`
	Sets    [][]int        `json:"sets,omitempty"`
	View    mahjong.View   `json:"view"`
}

// Offers reports whether req admits act, before the rules engine sees it.
func (req Request) Offers(act Action) bool {
	if act.Kind == ActPass {
		return req.Kind.Priority() > 0
	}
	if act.Kind != req.Kind {
		return false
	}
	switch req.Kind {
	case ActDiscard, ActReach:
		return containsInt(req.Indices, act.Index)
	case ActAddedKan, ActClosedKan:
		for _, t := range req.Tiles {
			if t == act.Tile {
				return true
			}
		}
		return false
	case ActPon, ActChi:
		for _, s := range req.Sets {
			if samePair(s, act.Indices) {
				return true
			}
		}
		return false
	}
	return true
}

func containsInt(list []int, x int) bool {
	for _, v := range list {
		if v == x {
			return true
		}
	}
	return false
}

func samePair(a, b []int) bool {
	if len(a) != 2 || len(b) != 2 {
		return false
	}
	return (a[0] == b[0] && a[1] == b[1]) || (a[0] == b[1] && a[1] == b[0])
}
