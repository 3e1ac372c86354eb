package agentgateway

import "kyoku-table/internal/mahjong"

type TableMeta struct {
	TableID string
	RoundID string
	Dealer  mahjong.Seat
}

// TableLifecycleObserver hears about tables as they start and close. Calls
// come from the goroutine that created or finished the table.
type TableLifecycleObserver interface {
	OnTableStarted(meta TableMeta, buf *EventBuffer)
	OnTableClosed(tableID string, summary TableSummary)
}

func (c *Coordinator) SetTableLifecycleObserver(obs TableLifecycleObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableObserver = obs
}
