package store

import (
	"context"
	"encoding/json"

	"kyoku-table/internal/kyoku"
)

// RoundSink appends every broadcast event of one round and closes the round
// row on its round-end event.
type RoundSink struct {
	st      *Store
	roundID string
}

func NewRoundSink(st *Store, roundID string) *RoundSink {
	return &RoundSink{st: st, roundID: roundID}
}

func (s *RoundSink) Publish(ctx context.Context, ev kyoku.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.st.AppendRoundEvent(ctx, s.roundID, int64(ev.Seq), string(ev.Kind), int(ev.Seat), payload); err != nil {
		return err
	}
	if ev.Kind != kyoku.EventRoundEnd || ev.Outcome == nil {
		return nil
	}
	detail, err := json.Marshal(ev.Outcome)
	if err != nil {
		return err
	}
	seat := int(ev.Outcome.Seat)
	return s.st.FinishRound(ctx, s.roundID, RoundStatusFinished, string(ev.Outcome.Kind), &seat, detail)
}
