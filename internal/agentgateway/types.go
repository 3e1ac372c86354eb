package agentgateway

import (
	"time"

	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
)

const (
	SeatModeAI     = "ai"
	SeatModeRemote = "remote"
)

// CreateTableRequest opens a table and starts its round. Seats lists the
// mode of east, south, west and north in that order.
type CreateTableRequest struct {
	Seats    []string `json:"seats,omitempty"`
	Dealer   string   `json:"dealer,omitempty"`
	WallSeed *int64   `json:"wall_seed,omitempty"`
}

type SeatInfo struct {
	Seat      string `json:"seat"`
	Mode      string `json:"mode"`
	StreamURL string `json:"stream_url,omitempty"`
	ActionURL string `json:"action_url,omitempty"`
	SocketURL string `json:"socket_url,omitempty"`
}

type CreateTableResponse struct {
	TableID   string     `json:"table_id"`
	RoundID   string     `json:"round_id"`
	Dealer    string     `json:"dealer"`
	WallSeed  int64      `json:"wall_seed"`
	Seats     []SeatInfo `json:"seats"`
	StreamURL string     `json:"stream_url"`
}

// ActionRequest answers one open offer. Index addresses a hand tile for
// discard and reach, Indices the two hand tiles for pon and chi, Tile the
// kan kind.
type ActionRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Index     int    `json:"index"`
	Indices   []int  `json:"indices,omitempty"`
	Tile      string `json:"tile,omitempty"`
}

type ActionResponse struct {
	Accepted  bool   `json:"accepted"`
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
}

// SeatState is what a remote seat may know right now. View is the snapshot
// carried by the latest offer and is nil before the first one.
type SeatState struct {
	TableID     string          `json:"table_id"`
	RoundID     string          `json:"round_id"`
	Seat        string          `json:"seat"`
	Status      string          `json:"status"`
	View        *mahjong.View   `json:"view,omitempty"`
	Pending     []kyoku.Request `json:"pending"`
	TimedOut    int             `json:"timed_out"`
	LastEventID string          `json:"last_event_id,omitempty"`
	Outcome     *kyoku.Outcome  `json:"outcome,omitempty"`
}

// TableSummary is the public face of a table. It never carries concealed
// tiles until the outcome reveals them.
type TableSummary struct {
	TableID   string         `json:"table_id"`
	RoundID   string         `json:"round_id"`
	Status    string         `json:"status"`
	State     string         `json:"state"`
	Dealer    string         `json:"dealer"`
	Seats     []string       `json:"seats"`
	LastSeq   uint64         `json:"last_seq"`
	Outcome   *kyoku.Outcome `json:"outcome,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
