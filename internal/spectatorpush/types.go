package spectatorpush

import (
	"context"
	"time"

	"kyoku-table/internal/agentgateway"
)

type PushManager interface {
	Start(ctx context.Context) error
	OnTableStarted(meta agentgateway.TableMeta, buf *agentgateway.EventBuffer)
	OnTableClosed(tableID string, summary agentgateway.TableSummary)
}

// PushTarget is one webhook. ScopeType is "all", "table" or "round"; the
// latter two name the table or round id in ScopeValue.
type PushTarget struct {
	Platform       string   `json:"platform"`
	Endpoint       string   `json:"endpoint"`
	Secret         string   `json:"secret"`
	ScopeType      string   `json:"scope_type"`
	ScopeValue     string   `json:"scope_value"`
	EventAllowlist []string `json:"event_allowlist"`
	Enabled        bool     `json:"enabled"`
}

type Config struct {
	Enabled             bool
	ConfigPath          string
	ConfigReload        time.Duration
	Targets             []PushTarget
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

// NormalizedEvent flattens a public feed entry. EventType is the broadcast
// kind (discard, call, reach, round_end) or table_closed.
type NormalizedEvent struct {
	EventID     string
	EventType   string
	ServerTS    int64
	TableID     string
	RoundID     string
	Seq         uint64
	Seat        *int
	Tile        string
	Tsumogiri   bool
	UnderReach  bool
	MeldKind    string
	MeldTiles   string
	Outcome     string
	Winners     []string
	TableStatus string
	CloseReason string
}

type MessageField struct {
	Name   string
	Value  string
	Inline bool
}

type FormattedMessage struct {
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []MessageField
}

type pushJob struct {
	Target    PushTarget
	Event     NormalizedEvent
	Formatted FormattedMessage
	Attempt   int
}

func (j pushJob) key() string {
	return targetKey(j.Target)
}

func targetKey(t PushTarget) string {
	return t.Platform + "|" + t.Endpoint + "|" + t.ScopeType + "|" + t.ScopeValue
}
