package kyoku

import "kyoku-table/internal/mahjong"

// Actor is one seat's channel. Request never blocks. Received and Fetch are
// polled by the controller, and Fetch consumes the answer. Flush drops every
// pending answer between decision points.
type Actor interface {
	Request(Request)
	Received(ActionKind) bool
	Fetch(ActionKind) (Action, bool)
	Flush()
	Notify(Event)
}

// Oracle answers legality questions about the live round and applies the
// accepted actions. Indices address the turn seat's hand, with len(hand)
// naming the drawn tile.
type Oracle interface {
	Turn() mahjong.Seat
	NextTurn()
	WallRemaining() int
	Draw() (mahjong.Tile, error)
	DrawReplacement() (mahjong.Tile, error)
	DrawnIndex() int
	LastDiscard() (mahjong.Seat, mahjong.Tile)
	IsReached(mahjong.Seat) bool
	View(mahjong.Seat) mahjong.View

	CanNineKinds() bool
	CanTsumo() bool
	AddedKanCandidates() []mahjong.Tile
	ClosedKanCandidates() []mahjong.Tile
	ReachCandidates() []int

	DoTsumo() (mahjong.Win, error)
	DoAddedKan(mahjong.Tile) (mahjong.Meld, error)
	DoClosedKan(mahjong.Tile) (mahjong.Meld, error)
	DoReach(index int) (mahjong.Discard, error)
	Discard(index int) (mahjong.Discard, error)

	CanRon(mahjong.Seat) bool
	CanRobKan(mahjong.Seat) bool
	CanOpenKan(mahjong.Seat) bool
	PonCandidates(mahjong.Seat) [][]int
	ChiCandidates(mahjong.Seat) [][]int

	DoRon([]mahjong.Seat) ([]mahjong.Win, error)
	DoRobKan([]mahjong.Seat) ([]mahjong.Win, error)
	PassRon(mahjong.Seat)
	DoOpenKan(mahjong.Seat) (mahjong.Meld, error)
	DoPon(mahjong.Seat, []int) (mahjong.Meld, error)
	DoChi(mahjong.Seat, []int) (mahjong.Meld, error)

	IsFourReach() bool
	IsFourWinds() bool
	IsFourKans() bool
	IsWallExhausted() bool
	TenpaiHands() map[mahjong.Seat][]mahjong.Tile
}
