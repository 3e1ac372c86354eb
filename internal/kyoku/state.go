package kyoku

import "errors"

var (
	ErrProtocolViolation = errors.New("protocol_violation")
	ErrChiNotDownstream  = errors.New("chi_not_downstream")
	ErrUnknownAction     = errors.New("unknown_action")
	ErrRoundOver         = errors.New("round_over")
)

type State int

const (
	StateDraw State = iota
	StateSendRequests
	StateAwaitAbort
	StateAwaitSelfWin
	StateAwaitAddedKan
	StateRobbingCheck
	StateDrawReplacement
	StateAwaitClosedKan
	StateAwaitReach
	StateDiscard
	StateCallWindow
	StateResolveWin
	StateCheckExhaustion
	StateApplyCall
	StateAdvanceTurn
	StateRoundEnd
)

var stateNames = [...]string{
	"DRAW",
	"SEND_REQUESTS",
	"AWAIT_ABORT",
	"AWAIT_SELF_WIN",
	"AWAIT_ADDED_KAN",
	"ROBBING_CHECK",
	"DRAW_REPLACEMENT",
	"AWAIT_CLOSED_KAN",
	"AWAIT_REACH",
	"DISCARD",
	"CALL_WINDOW",
	"RESOLVE_WIN",
	"CHECK_EXHAUSTION",
	"APPLY_CALL",
	"ADVANCE_TURN",
	"ROUND_END",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// edges lists every successor a state may hand control to. DISCARD loops on
// itself while the seat keeps sending unplayable tiles.
var edges = map[State][]State{
	StateDraw:            {StateSendRequests, StateRoundEnd},
	StateSendRequests:    {StateAwaitAbort},
	StateAwaitAbort:      {StateAwaitSelfWin, StateRoundEnd},
	StateAwaitSelfWin:    {StateAwaitAddedKan, StateRoundEnd},
	StateAwaitAddedKan:   {StateRobbingCheck, StateAwaitClosedKan},
	StateRobbingCheck:    {StateDrawReplacement, StateRoundEnd},
	StateDrawReplacement: {StateSendRequests},
	StateAwaitClosedKan:  {StateAwaitReach, StateDrawReplacement},
	StateAwaitReach:      {StateDiscard},
	StateDiscard:         {StateCallWindow, StateDiscard},
	StateCallWindow:      {StateResolveWin},
	StateResolveWin:      {StateRoundEnd, StateCheckExhaustion},
	StateCheckExhaustion: {StateRoundEnd, StateApplyCall},
	StateApplyCall:       {StateDrawReplacement, StateSendRequests, StateAdvanceTurn},
	StateAdvanceTurn:     {StateDraw, StateRoundEnd},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to State) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}
