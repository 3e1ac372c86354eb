package store

import (
	"encoding/json"
	"time"
)

const (
	RoundStatusRunning  = "running"
	RoundStatusFinished = "finished"
	RoundStatusFailed   = "failed"
)

type Round struct {
	ID          string          `json:"id"`
	TableID     string          `json:"table_id"`
	Dealer      int             `json:"dealer"`
	WallSeed    int64           `json:"wall_seed"`
	Status      string          `json:"status"`
	Outcome     string          `json:"outcome,omitempty"`
	OutcomeSeat *int            `json:"outcome_seat,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

type RoundEvent struct {
	ID        string          `json:"id"`
	RoundID   string          `json:"round_id"`
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Seat      int             `json:"seat"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
