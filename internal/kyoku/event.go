package kyoku

import "kyoku-table/internal/mahjong"

type EventKind string

const (
	EventDiscard  EventKind = "discard"
	EventCall     EventKind = "call"
	EventReach    EventKind = "reach"
	EventRoundEnd EventKind = "round_end"
)

// Event is broadcast to every seat after an accepted action. Seq is
// assigned by the notifier and starts at 1.
type Event struct {
	Seq        uint64        `json:"seq"`
	Kind       EventKind     `json:"kind"`
	Seat       mahjong.Seat  `json:"seat"`
	Tile       mahjong.Tile  `json:"tile"`
	Tsumogiri  bool          `json:"tsumogiri,omitempty"`
	UnderReach bool          `json:"under_reach,omitempty"`
	IsLastTile bool          `json:"is_last_tile,omitempty"`
	Meld       *mahjong.Meld `json:"meld,omitempty"`
	Outcome    *Outcome      `json:"outcome,omitempty"`
}

type OutcomeKind string

const (
	OutcomeTsumo     OutcomeKind = "tsumo"
	OutcomeRon       OutcomeKind = "ron"
	OutcomeExhausted OutcomeKind = "exhausted"
	OutcomeFourReach OutcomeKind = "four_reach"
	OutcomeFourWinds OutcomeKind = "four_winds"
	OutcomeFourKans  OutcomeKind = "four_kans"
	OutcomeNineKinds OutcomeKind = "nine_kinds"
	OutcomeThreeRon  OutcomeKind = "three_ron"
)

// IsAbort reports the abortive draws. Exhaustion is a normal draw.
func (k OutcomeKind) IsAbort() bool {
	switch k {
	case OutcomeFourReach, OutcomeFourWinds, OutcomeFourKans, OutcomeNineKinds, OutcomeThreeRon:
		return true
	}
	return false
}

// Outcome is the terminal result of a round. Wins is kept on a three-ron
// abort so the claims stay visible.
type Outcome struct {
	Kind   OutcomeKind                     `json:"kind"`
	Seat   mahjong.Seat                    `json:"seat"`
	Wins   []mahjong.Win                   `json:"wins,omitempty"`
	Tenpai map[mahjong.Seat][]mahjong.Tile `json:"tenpai,omitempty"`
}
