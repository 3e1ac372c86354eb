package mahjong

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Tile is one of the 34 tile kinds. Man 0-8, pin 9-17, sou 18-26, then
// the winds east..north (27-30) and dragons white, green, red (31-33).
type Tile int

const (
	Man1 Tile = iota
	Man2
	Man3
	Man4
	Man5
	Man6
	Man7
	Man8
	Man9
	Pin1
	Pin2
	Pin3
	Pin4
	Pin5
	Pin6
	Pin7
	Pin8
	Pin9
	Sou1
	Sou2
	Sou3
	Sou4
	Sou5
	Sou6
	Sou7
	Sou8
	Sou9
	East
	South
	West
	North
	White
	Green
	Red
)

const (
	KindCount   = 34
	CopiesEach  = 4
	TileCount   = KindCount * CopiesEach
	NoTile Tile = -1
)

var ErrInvalidTile = errors.New("invalid_tile")

var suitLetters = [...]byte{'m', 'p', 's', 'z'}

func (t Tile) Valid() bool { return t >= 0 && t < KindCount }

// Suit returns 0 man, 1 pin, 2 sou, 3 honor.
func (t Tile) Suit() int { return int(t) / 9 }

// Number is 1-9 for suited tiles and 1-7 for honors.
func (t Tile) Number() int { return int(t)%9 + 1 }

func (t Tile) IsHonor() bool { return t >= East }

func (t Tile) IsWind() bool { return t >= East && t <= North }

func (t Tile) IsTerminal() bool {
	return !t.IsHonor() && (t.Number() == 1 || t.Number() == 9)
}

// IsYaochu reports terminals and honors.
func (t Tile) IsYaochu() bool { return t.IsHonor() || t.IsTerminal() }

func (t Tile) String() string {
	if !t.Valid() {
		return "??"
	}
	return fmt.Sprintf("%d%c", t.Number(), suitLetters[t.Suit()])
}

// MarshalText encodes NoTile as the empty string.
func (t Tile) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return []byte{}, nil
	}
	return []byte(t.String()), nil
}

func (t *Tile) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = NoTile
		return nil
	}
	tiles, err := ParseTiles(string(b))
	if err != nil {
		return err
	}
	if len(tiles) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidTile, string(b))
	}
	*t = tiles[0]
	return nil
}

// ParseTiles reads compact notation such as "123m 456p 11z". Digits are
// buffered until a suit letter closes the group.
func ParseTiles(s string) ([]Tile, error) {
	var out []Tile
	var pending []int
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '1' && r <= '9':
			pending = append(pending, int(r-'0'))
		case r == 'm' || r == 'p' || r == 's' || r == 'z':
			if len(pending) == 0 {
				return nil, fmt.Errorf("%w: suit %q without numbers", ErrInvalidTile, r)
			}
			suit := strings.IndexRune("mpsz", r)
			for _, n := range pending {
				if suit == 3 && n > 7 {
					return nil, fmt.Errorf("%w: %dz", ErrInvalidTile, n)
				}
				out = append(out, Tile(suit*9+n-1))
			}
			pending = pending[:0]
		case r == ' ' || r == ',':
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidTile, r)
		}
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: trailing numbers without suit", ErrInvalidTile)
	}
	return out, nil
}

// MustParseTiles panics on malformed notation. Intended for tests and fixtures.
func MustParseTiles(s string) []Tile {
	tiles, err := ParseTiles(s)
	if err != nil {
		panic(err)
	}
	return tiles
}

func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i] < tiles[j] })
}

func FormatTiles(tiles []Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Counts folds tiles into a 34-slot histogram.
func Counts(tiles []Tile) [KindCount]int {
	var c [KindCount]int
	for _, t := range tiles {
		if t.Valid() {
			c[t]++
		}
	}
	return c
}
