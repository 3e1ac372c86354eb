package table

import (
	"fmt"

	"kyoku-table/internal/hand"
	"kyoku-table/internal/mahjong"
)

// Furiten reports whether s is barred from winning on another seat's tile.
func (t *Table) Furiten(s mahjong.Seat) bool {
	st := t.seats[s]
	if st.passedRon || st.permFuriten {
		return true
	}
	for _, w := range hand.Waits(mahjong.Counts(st.hand)) {
		for _, d := range st.discards {
			if d.Tile == w {
				return true
			}
		}
	}
	return false
}

func (t *Table) winsWith(s mahjong.Seat, tile mahjong.Tile) bool {
	if tile == mahjong.NoTile || t.Furiten(s) {
		return false
	}
	c := mahjong.Counts(t.seats[s].hand)
	c[tile]++
	return hand.IsComplete(c)
}

// callable covers the shared limits on pon, chi and open kan.
func (t *Table) callable(s mahjong.Seat) bool {
	return s != t.lastFrom && t.lastTile != mahjong.NoTile &&
		!t.seats[s].reached && t.wall.Remaining() > 0
}

func (t *Table) CanRon(s mahjong.Seat) bool {
	return s != t.lastFrom && t.winsWith(s, t.lastTile)
}

// CanRobKan reports a win on the tile just added to a pon.
func (t *Table) CanRobKan(s mahjong.Seat) bool {
	return s != t.turn && t.winsWith(s, t.robbableTile)
}

func (t *Table) CanOpenKan(s mahjong.Seat) bool {
	if !t.callable(s) || !t.canKanNow() {
		return false
	}
	return mahjong.Counts(t.seats[s].hand)[t.lastTile] >= 3
}

// PonCandidates lists hand index pairs matching the last discard.
func (t *Table) PonCandidates(s mahjong.Seat) [][]int {
	if !t.callable(s) {
		return nil
	}
	var idx []int
	for i, x := range t.seats[s].hand {
		if x == t.lastTile {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return nil
	}
	return [][]int{idx[:2]}
}

// ChiCandidates lists hand index pairs that form a run with the last
// discard. Only the seat downstream of the discarder has any.
func (t *Table) ChiCandidates(s mahjong.Seat) [][]int {
	tile := t.lastTile
	if !t.callable(s) || s != t.lastFrom.Next() || tile.IsHonor() {
		return nil
	}
	h := t.seats[s].hand
	find := func(x mahjong.Tile) int {
		for i, v := range h {
			if v == x {
				return i
			}
		}
		return -1
	}
	n := tile.Number()
	var out [][]int
	for _, off := range [][2]int{{-2, -1}, {-1, 1}, {1, 2}} {
		a, b := n+off[0], n+off[1]
		if a < 1 || b > 9 {
			continue
		}
		i, j := find(tile+mahjong.Tile(off[0])), find(tile+mahjong.Tile(off[1]))
		if i >= 0 && j >= 0 {
			out = append(out, []int{i, j})
		}
	}
	return out
}

// DoRon confirms discard wins for each seat in order.
func (t *Table) DoRon(seats []mahjong.Seat) ([]mahjong.Win, error) {
	return t.wins(seats, t.lastTile, t.lastFrom, false, t.CanRon)
}

func (t *Table) DoRobKan(seats []mahjong.Seat) ([]mahjong.Win, error) {
	return t.wins(seats, t.robbableTile, t.turn, true, t.CanRobKan)
}

func (t *Table) wins(seats []mahjong.Seat, tile mahjong.Tile, from mahjong.Seat, robbed bool, can func(mahjong.Seat) bool) ([]mahjong.Win, error) {
	out := make([]mahjong.Win, 0, len(seats))
	for _, s := range seats {
		if !s.Valid() || !can(s) {
			return nil, fmt.Errorf("%w: %s cannot win on %s", ErrIllegal, s, tile)
		}
		out = append(out, mahjong.Win{
			Seat:   s,
			From:   from,
			Tile:   tile,
			Robbed: robbed,
			Hand:   sorted(append(append([]mahjong.Tile(nil), t.seats[s].hand...), tile)),
			Melds:  append([]mahjong.Meld(nil), t.seats[s].melds...),
		})
	}
	return out, nil
}

// PassRon records a declined win. It lasts until the seat's next discard,
// or for the rest of the round once the seat has reached.
func (t *Table) PassRon(s mahjong.Seat) {
	st := &t.seats[s]
	st.passedRon = true
	if st.reached {
		st.permFuriten = true
	}
}

func (t *Table) DoOpenKan(s mahjong.Seat) (mahjong.Meld, error) {
	if !t.CanOpenKan(s) {
		return mahjong.Meld{}, fmt.Errorf("%w: open kan by %s", ErrIllegal, s)
	}
	st := &t.seats[s]
	st.hand, _ = removeTiles(st.hand, t.lastTile, 3)
	tile := t.lastTile
	m := mahjong.Meld{
		Kind:   mahjong.MeldOpenKan,
		Tiles:  []mahjong.Tile{tile, tile, tile, tile},
		Called: tile,
		From:   t.lastFrom,
	}
	t.kanSeats = append(t.kanSeats, s)
	return t.claim(s, m), nil
}

func (t *Table) DoPon(s mahjong.Seat, idx []int) (mahjong.Meld, error) {
	if !containsPair(t.PonCandidates(s), idx) {
		return mahjong.Meld{}, fmt.Errorf("%w: pon by %s", ErrIllegal, s)
	}
	return t.takeCall(s, mahjong.MeldPon, idx)
}

func (t *Table) DoChi(s mahjong.Seat, idx []int) (mahjong.Meld, error) {
	if !containsPair(t.ChiCandidates(s), idx) {
		return mahjong.Meld{}, fmt.Errorf("%w: chi by %s", ErrIllegal, s)
	}
	return t.takeCall(s, mahjong.MeldChi, idx)
}

func (t *Table) takeCall(s mahjong.Seat, kind mahjong.MeldKind, idx []int) (mahjong.Meld, error) {
	st := &t.seats[s]
	kept, taken, err := removeIndices(st.hand, idx)
	if err != nil {
		return mahjong.Meld{}, err
	}
	st.hand = kept
	tiles := sorted(append(taken, t.lastTile))
	return t.claim(s, mahjong.Meld{Kind: kind, Tiles: tiles, Called: t.lastTile, From: t.lastFrom}), nil
}

// claim hands the turn to the caller and marks the river tile as taken.
func (t *Table) claim(s mahjong.Seat, m mahjong.Meld) mahjong.Meld {
	st := &t.seats[s]
	st.melds = append(st.melds, m)
	river := t.seats[t.lastFrom].discards
	if n := len(river); n > 0 {
		river[n-1].Called = true
	}
	t.anyCall = true
	t.turn = s
	t.drawn = mahjong.NoTile
	return m
}

func containsPair(list [][]int, idx []int) bool {
	if len(idx) != 2 {
		return false
	}
	for _, c := range list {
		if (c[0] == idx[0] && c[1] == idx[1]) || (c[0] == idx[1] && c[1] == idx[0]) {
			return true
		}
	}
	return false
}

// IsFourReach holds once every seat has declared reach.
func (t *Table) IsFourReach() bool {
	for i := range t.seats {
		if !t.seats[i].reached {
			return false
		}
	}
	return true
}

// IsFourWinds holds when the four opening discards are the same wind and
// nobody has called.
func (t *Table) IsFourWinds() bool {
	if t.anyCall {
		return false
	}
	first := mahjong.NoTile
	for i := range t.seats {
		d := t.seats[i].discards
		if len(d) != 1 || !d[0].Tile.IsWind() {
			return false
		}
		if first == mahjong.NoTile {
			first = d[0].Tile
		}
		if d[0].Tile != first {
			return false
		}
	}
	return true
}

// IsFourKans holds with four kans spread over more than one seat.
func (t *Table) IsFourKans() bool {
	if len(t.kanSeats) < 4 {
		return false
	}
	for _, s := range t.kanSeats[1:] {
		if s != t.kanSeats[0] {
			return true
		}
	}
	return false
}

func (t *Table) IsWallExhausted() bool { return t.wall.Remaining() == 0 }
