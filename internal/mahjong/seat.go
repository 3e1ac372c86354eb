package mahjong

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Seat is a fixed turn-order position. East acts first.
type Seat int

const (
	SeatEast Seat = iota
	SeatSouth
	SeatWest
	SeatNorth
)

const SeatCount = 4

var ErrInvalidSeat = errors.New("invalid_seat")

var seatNames = [...]string{"east", "south", "west", "north"}

func (s Seat) Valid() bool { return s >= 0 && s < SeatCount }

// Next is the seat downstream (shimocha) of s.
func (s Seat) Next() Seat { return (s + 1) % SeatCount }

// Prev is the seat upstream (kamicha) of s.
func (s Seat) Prev() Seat { return (s + SeatCount - 1) % SeatCount }

func (s Seat) String() string {
	if !s.Valid() {
		return "seat(" + strconv.Itoa(int(s)) + ")"
	}
	return seatNames[s]
}

// Rotation returns the four seats in turn order starting at s.
func (s Seat) Rotation() [SeatCount]Seat {
	var out [SeatCount]Seat
	for i := range out {
		out[i] = (s + Seat(i)) % SeatCount
	}
	return out
}

// Others returns the three seats after s in turn order.
func (s Seat) Others() [SeatCount - 1]Seat {
	return [SeatCount - 1]Seat{s.Next(), s.Next().Next(), s.Prev()}
}

// ParseSeat accepts either the index ("0".."3") or the wind name.
func ParseSeat(v string) (Seat, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := Seat(n)
		if !s.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidSeat, n)
		}
		return s, nil
	}
	for i, name := range seatNames {
		if name == v {
			return Seat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeat, v)
}

// SeatWind is the wind tile matching the seat.
func (s Seat) SeatWind() Tile { return East + Tile(s) }
