// Package table is the rules engine behind a round: hands, wall, rivers and
// the legality of every offer the round controller makes.
package table

import (
	"errors"
	"fmt"
	"math/rand"

	"kyoku-table/internal/hand"
	"kyoku-table/internal/mahjong"
)

var (
	ErrInvalidIndex = errors.New("invalid_index")
	ErrIllegal      = errors.New("illegal_action")
	ErrBadSetup     = errors.New("bad_setup")
)

// Setup fixes the starting position. Dead holds the replacement tiles first,
// then the dora indicators.
type Setup struct {
	Hands  [mahjong.SeatCount][]mahjong.Tile
	Live   []mahjong.Tile
	Dead   []mahjong.Tile
	Dealer mahjong.Seat
}

type seatState struct {
	hand        []mahjong.Tile
	melds       []mahjong.Meld
	discards    []mahjong.Discard
	reached     bool
	discarded   bool
	passedRon   bool
	permFuriten bool
}

type Table struct {
	wall  *Wall
	seats [mahjong.SeatCount]seatState
	turn  mahjong.Seat
	drawn mahjong.Tile

	kanSeats []mahjong.Seat
	anyCall  bool

	lastTile     mahjong.Tile
	lastFrom     mahjong.Seat
	robbableTile mahjong.Tile
}

func New(s Setup) (*Table, error) {
	if !s.Dealer.Valid() {
		return nil, fmt.Errorf("%w: dealer %d", ErrBadSetup, s.Dealer)
	}
	var seen [mahjong.KindCount]int
	count := func(tiles []mahjong.Tile) error {
		for _, t := range tiles {
			if !t.Valid() {
				return fmt.Errorf("%w: %w", ErrBadSetup, mahjong.ErrInvalidTile)
			}
			seen[t]++
			if seen[t] > mahjong.CopiesEach {
				return fmt.Errorf("%w: more than four %s", ErrBadSetup, t)
			}
		}
		return nil
	}
	t := &Table{
		turn:         s.Dealer,
		drawn:        mahjong.NoTile,
		lastTile:     mahjong.NoTile,
		robbableTile: mahjong.NoTile,
	}
	for i, h := range s.Hands {
		if len(h) != HandSize {
			return nil, fmt.Errorf("%w: seat %d holds %d tiles", ErrBadSetup, i, len(h))
		}
		if err := count(h); err != nil {
			return nil, err
		}
		t.seats[i].hand = sorted(h)
	}
	if err := count(s.Live); err != nil {
		return nil, err
	}
	if err := count(s.Dead); err != nil {
		return nil, err
	}
	t.wall = NewWall(s.Live, s.Dead)
	return t, nil
}

// Deal shuffles a full set and deals thirteen tiles to each seat.
func Deal(rng *rand.Rand, dealer mahjong.Seat) (*Table, error) {
	tiles := Shuffled(rng)
	var s Setup
	s.Dealer = dealer
	pos := 0
	for i := range s.Hands {
		s.Hands[i] = tiles[pos : pos+HandSize]
		pos += HandSize
	}
	s.Dead = tiles[len(tiles)-DeadWallSize:]
	s.Live = tiles[pos : len(tiles)-DeadWallSize]
	return New(s)
}

func (t *Table) Turn() mahjong.Seat { return t.turn }

// NextTurn passes the turn downstream.
func (t *Table) NextTurn() { t.turn = t.turn.Next() }

func (t *Table) WallRemaining() int { return t.wall.Remaining() }

func (t *Table) Draw() (mahjong.Tile, error) {
	tile, err := t.wall.Draw()
	if err != nil {
		return mahjong.NoTile, err
	}
	t.drawn = tile
	return tile, nil
}

func (t *Table) DrawReplacement() (mahjong.Tile, error) {
	tile, err := t.wall.DrawReplacement()
	if err != nil {
		return mahjong.NoTile, err
	}
	t.drawn = tile
	t.robbableTile = mahjong.NoTile
	return tile, nil
}

// DrawnIndex addresses the freshly drawn tile, or -1 after a call.
func (t *Table) DrawnIndex() int {
	if t.drawn == mahjong.NoTile {
		return -1
	}
	return len(t.seats[t.turn].hand)
}

func (t *Table) IsReached(s mahjong.Seat) bool { return t.seats[s].reached }

func (t *Table) LastDiscard() (mahjong.Seat, mahjong.Tile) { return t.lastFrom, t.lastTile }

func (t *Table) KanCount() int { return len(t.kanSeats) }

// View hides every concealed hand but the viewer's.
func (t *Table) View(s mahjong.Seat) mahjong.View {
	v := mahjong.View{
		Seat:           s,
		Turn:           t.turn,
		Hand:           append([]mahjong.Tile(nil), t.seats[s].hand...),
		Drawn:          mahjong.NoTile,
		WallRemaining:  t.wall.Remaining(),
		DoraIndicators: t.wall.DoraIndicators(),
	}
	if s == t.turn {
		v.Drawn = t.drawn
	}
	for i := range t.seats {
		v.Melds[i] = append([]mahjong.Meld(nil), t.seats[i].melds...)
		v.Discards[i] = append([]mahjong.Discard(nil), t.seats[i].discards...)
		v.Reached[i] = t.seats[i].reached
	}
	return v
}

// TenpaiHands reveals the seats that are ready at exhaustive draw.
func (t *Table) TenpaiHands() map[mahjong.Seat][]mahjong.Tile {
	out := make(map[mahjong.Seat][]mahjong.Tile)
	for i := range t.seats {
		h := t.seats[i].hand
		if hand.IsTenpai(mahjong.Counts(h)) {
			out[mahjong.Seat(i)] = append([]mahjong.Tile(nil), h...)
		}
	}
	return out
}

// fullHand is the turn seat's concealed tiles including the drawn one.
func (t *Table) fullHand() []mahjong.Tile {
	h := append([]mahjong.Tile(nil), t.seats[t.turn].hand...)
	if t.drawn != mahjong.NoTile {
		h = append(h, t.drawn)
	}
	return h
}

// tileAt resolves a turn-seat index, where len(hand) names the drawn tile.
func (t *Table) tileAt(i int) (mahjong.Tile, error) {
	h := t.seats[t.turn].hand
	switch {
	case i >= 0 && i < len(h):
		return h[i], nil
	case i == len(h) && t.drawn != mahjong.NoTile:
		return t.drawn, nil
	}
	return mahjong.NoTile, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
}

// mergeDrawn folds the drawn tile into the sorted hand.
func (t *Table) mergeDrawn() {
	if t.drawn == mahjong.NoTile {
		return
	}
	st := &t.seats[t.turn]
	st.hand = sorted(append(st.hand, t.drawn))
	t.drawn = mahjong.NoTile
}

func sorted(tiles []mahjong.Tile) []mahjong.Tile {
	out := append([]mahjong.Tile(nil), tiles...)
	mahjong.SortTiles(out)
	return out
}

// removeTiles deletes n copies of tile from h. It reports false and leaves
// h untouched when fewer than n copies exist.
func removeTiles(h []mahjong.Tile, tile mahjong.Tile, n int) ([]mahjong.Tile, bool) {
	out := make([]mahjong.Tile, 0, len(h))
	left := n
	for _, x := range h {
		if x == tile && left > 0 {
			left--
			continue
		}
		out = append(out, x)
	}
	if left > 0 {
		return h, false
	}
	return out, true
}

func removeIndices(h []mahjong.Tile, idx []int) ([]mahjong.Tile, []mahjong.Tile, error) {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(h) || drop[i] {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidIndex, idx)
		}
		drop[i] = true
	}
	var kept, taken []mahjong.Tile
	for i, x := range h {
		if drop[i] {
			taken = append(taken, x)
			continue
		}
		kept = append(kept, x)
	}
	return kept, taken, nil
}
