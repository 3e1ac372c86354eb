package table

import (
	"fmt"

	"kyoku-table/internal/hand"
	"kyoku-table/internal/mahjong"
)

// ReachMinWall is the live-wall floor below which reach is refused.
const ReachMinWall = 4

func (t *Table) maxKans() bool { return len(t.kanSeats) >= 4 }

// canKanNow covers the wall-side limits shared by every kan variant.
func (t *Table) canKanNow() bool {
	return !t.maxKans() && t.wall.Remaining() > 0 && t.wall.ReplacementsLeft() > 0
}

// CanNineKinds holds on a seat's first draw while nobody has called.
func (t *Table) CanNineKinds() bool {
	st := t.seats[t.turn]
	if st.discarded || t.anyCall || t.drawn == mahjong.NoTile {
		return false
	}
	return hand.DistinctYaochu(mahjong.Counts(t.fullHand())) >= 9
}

func (t *Table) CanTsumo() bool {
	if t.drawn == mahjong.NoTile {
		return false
	}
	return hand.IsComplete(mahjong.Counts(t.fullHand()))
}

// AddedKanCandidates lists the tiles that can extend one of the turn seat's pons.
func (t *Table) AddedKanCandidates() []mahjong.Tile {
	if !t.canKanNow() || t.drawn == mahjong.NoTile {
		return nil
	}
	c := mahjong.Counts(t.fullHand())
	var out []mahjong.Tile
	for _, m := range t.seats[t.turn].melds {
		if m.Kind == mahjong.MeldPon && c[m.Called] > 0 {
			out = append(out, m.Called)
		}
	}
	return out
}

// ClosedKanCandidates lists kinds held four times. Under reach the quad must
// use the drawn tile and leave the waits unchanged.
func (t *Table) ClosedKanCandidates() []mahjong.Tile {
	if !t.canKanNow() || t.drawn == mahjong.NoTile {
		return nil
	}
	st := t.seats[t.turn]
	c := mahjong.Counts(t.fullHand())
	var out []mahjong.Tile
	for k := 0; k < mahjong.KindCount; k++ {
		if c[k] < mahjong.CopiesEach {
			continue
		}
		tile := mahjong.Tile(k)
		if st.reached && !t.keepsWaits(tile) {
			continue
		}
		out = append(out, tile)
	}
	return out
}

func (t *Table) keepsWaits(tile mahjong.Tile) bool {
	if t.drawn != tile {
		return false
	}
	before := hand.Waits(mahjong.Counts(t.seats[t.turn].hand))
	after := mahjong.Counts(t.seats[t.turn].hand)
	after[tile] -= 3
	got := hand.Waits(after)
	if len(got) != len(before) {
		return false
	}
	for i := range got {
		if got[i] != before[i] {
			return false
		}
	}
	return true
}

// ReachCandidates lists discard indices that leave a closed hand ready.
func (t *Table) ReachCandidates() []int {
	st := t.seats[t.turn]
	if st.reached || t.drawn == mahjong.NoTile || t.wall.Remaining() < ReachMinWall {
		return nil
	}
	for _, m := range st.melds {
		if m.Open() {
			return nil
		}
	}
	full := t.fullHand()
	c := mahjong.Counts(full)
	var out []int
	for i, tile := range full {
		c[tile]--
		if hand.IsTenpai(c) {
			out = append(out, i)
		}
		c[tile]++
	}
	return out
}

func (t *Table) DoTsumo() (mahjong.Win, error) {
	if !t.CanTsumo() {
		return mahjong.Win{}, fmt.Errorf("%w: tsumo", ErrIllegal)
	}
	st := t.seats[t.turn]
	return mahjong.Win{
		Seat:  t.turn,
		From:  t.turn,
		Tile:  t.drawn,
		Tsumo: true,
		Hand:  sorted(t.fullHand()),
		Melds: append([]mahjong.Meld(nil), st.melds...),
	}, nil
}

func (t *Table) DoAddedKan(tile mahjong.Tile) (mahjong.Meld, error) {
	if !containsTile(t.AddedKanCandidates(), tile) {
		return mahjong.Meld{}, fmt.Errorf("%w: added kan %s", ErrIllegal, tile)
	}
	t.mergeDrawn()
	st := &t.seats[t.turn]
	st.hand, _ = removeTiles(st.hand, tile, 1)
	var out mahjong.Meld
	for i, m := range st.melds {
		if m.Kind == mahjong.MeldPon && m.Called == tile {
			m.Kind = mahjong.MeldAddedKan
			m.Tiles = append(append([]mahjong.Tile(nil), m.Tiles...), tile)
			st.melds[i] = m
			out = m
			break
		}
	}
	t.kanSeats = append(t.kanSeats, t.turn)
	t.anyCall = true
	t.robbableTile = tile
	return out, nil
}

func (t *Table) DoClosedKan(tile mahjong.Tile) (mahjong.Meld, error) {
	if !containsTile(t.ClosedKanCandidates(), tile) {
		return mahjong.Meld{}, fmt.Errorf("%w: closed kan %s", ErrIllegal, tile)
	}
	t.mergeDrawn()
	st := &t.seats[t.turn]
	st.hand, _ = removeTiles(st.hand, tile, mahjong.CopiesEach)
	m := mahjong.Meld{
		Kind:   mahjong.MeldClosedKan,
		Tiles:  []mahjong.Tile{tile, tile, tile, tile},
		Called: tile,
		From:   t.turn,
	}
	st.melds = append(st.melds, m)
	t.kanSeats = append(t.kanSeats, t.turn)
	t.anyCall = true
	return m, nil
}

// DoReach locks the hand and discards at index.
func (t *Table) DoReach(index int) (mahjong.Discard, error) {
	if !containsInt(t.ReachCandidates(), index) {
		return mahjong.Discard{}, fmt.Errorf("%w: reach at %d", ErrIllegal, index)
	}
	seat := t.turn
	d, err := t.discard(index, true)
	if err != nil {
		return mahjong.Discard{}, err
	}
	t.seats[seat].reached = true
	return d, nil
}

// Discard plays the tile at index. A reached seat may only let its drawn
// tile go.
func (t *Table) Discard(index int) (mahjong.Discard, error) {
	if t.seats[t.turn].reached && index != t.DrawnIndex() {
		return mahjong.Discard{}, fmt.Errorf("%w: hand is locked", ErrIllegal)
	}
	return t.discard(index, false)
}

func (t *Table) discard(index int, reach bool) (mahjong.Discard, error) {
	tile, err := t.tileAt(index)
	if err != nil {
		return mahjong.Discard{}, err
	}
	st := &t.seats[t.turn]
	d := mahjong.Discard{Tile: tile, Tsumogiri: index == t.DrawnIndex(), Reach: reach}
	if d.Tsumogiri {
		t.drawn = mahjong.NoTile
	} else {
		st.hand = append(st.hand[:index:index], st.hand[index+1:]...)
		t.mergeDrawn()
	}
	st.discards = append(st.discards, d)
	st.discarded = true
	st.passedRon = false
	t.lastTile = tile
	t.lastFrom = t.turn
	t.robbableTile = mahjong.NoTile
	return d, nil
}

func containsTile(list []mahjong.Tile, x mahjong.Tile) bool {
	for _, v := range list {
		if v == x {
			return true
		}
	}
	return false
}

func containsInt(list []int, x int) bool {
	for _, v := range list {
		if v == x {
			return true
		}
	}
	return false
}
