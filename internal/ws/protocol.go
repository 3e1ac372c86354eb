package ws

import "kyoku-table/internal/agentgateway"

const ProtocolVersion = "1.0"

const (
	TypeHello        = "hello"
	TypeStream       = "stream"
	TypeAction       = "action"
	TypeActionResult = "action_result"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// Hello opens every seat connection.
type Hello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	TableID         string `json:"table_id"`
	Seat            string `json:"seat"`
}

// StreamMessage wraps one entry of the seat feed.
type StreamMessage struct {
	Type            string                   `json:"type"`
	ProtocolVersion string                   `json:"protocol_version"`
	Event           agentgateway.StreamEvent `json:"event"`
}

type ActionMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Index     int    `json:"index"`
	Indices   []int  `json:"indices,omitempty"`
	Tile      string `json:"tile,omitempty"`
}

type ActionResult struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
}

type Pong struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	TimestampMS     int64  `json:"timestamp_ms"`
}

type ErrorMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Error           string `json:"error"`
}

func (m ActionMessage) request() agentgateway.ActionRequest {
	return agentgateway.ActionRequest{
		RequestID: m.RequestID,
		Kind:      m.Kind,
		Index:     m.Index,
		Indices:   m.Indices,
		Tile:      m.Tile,
	}
}
