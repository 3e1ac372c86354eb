package table

import (
	"errors"
	"math/rand"

	"kyoku-table/internal/mahjong"
)

const (
	DeadWallSize     = 14
	ReplacementTiles = 4
	HandSize         = 13
)

var ErrWallEmpty = errors.New("wall_empty")

// Wall holds the live draw order and the dead wall. The first four dead
// tiles are kan replacements; the rest are dora indicators, flipped one
// per kan.
type Wall struct {
	live        []mahjong.Tile
	replacement []mahjong.Tile
	indicators  []mahjong.Tile
	revealed    int
}

func NewWall(live, dead []mahjong.Tile) *Wall {
	w := &Wall{live: append([]mahjong.Tile(nil), live...)}
	n := ReplacementTiles
	if len(dead) < n {
		n = len(dead)
	}
	w.replacement = append([]mahjong.Tile(nil), dead[:n]...)
	w.indicators = append([]mahjong.Tile(nil), dead[n:]...)
	if len(w.indicators) > 0 {
		w.revealed = 1
	}
	return w
}

// Shuffled builds the 136-tile set in rng order and splits off the dead wall.
func Shuffled(rng *rand.Rand) []mahjong.Tile {
	tiles := make([]mahjong.Tile, 0, mahjong.TileCount)
	for k := 0; k < mahjong.KindCount; k++ {
		for i := 0; i < mahjong.CopiesEach; i++ {
			tiles = append(tiles, mahjong.Tile(k))
		}
	}
	rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
	return tiles
}

func (w *Wall) Remaining() int { return len(w.live) }

func (w *Wall) ReplacementsLeft() int { return len(w.replacement) }

func (w *Wall) Draw() (mahjong.Tile, error) {
	if len(w.live) == 0 {
		return mahjong.NoTile, ErrWallEmpty
	}
	t := w.live[0]
	w.live = w.live[1:]
	return t, nil
}

// DrawReplacement takes a dead-wall tile. The live wall gives up its last
// tile so the dead wall stays at fourteen.
func (w *Wall) DrawReplacement() (mahjong.Tile, error) {
	if len(w.replacement) == 0 {
		return mahjong.NoTile, ErrWallEmpty
	}
	t := w.replacement[0]
	w.replacement = w.replacement[1:]
	if len(w.live) > 0 {
		w.live = w.live[:len(w.live)-1]
	}
	if w.revealed < len(w.indicators) {
		w.revealed++
	}
	return t, nil
}

func (w *Wall) DoraIndicators() []mahjong.Tile {
	return append([]mahjong.Tile(nil), w.indicators[:w.revealed]...)
}
