// Package spectatorpush forwards the public feed of every table to chat
// webhooks. It follows tables through the coordinator's lifecycle hook.
package spectatorpush

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kyoku-table/internal/agentgateway"
	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/spectatorpush/platforms"
)

type tableSubscription struct {
	meta agentgateway.TableMeta
	buf  *agentgateway.EventBuffer
	ch   chan agentgateway.StreamEvent
}

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter

	dispatchCh chan pushJob
	retryQ     *retryQueue
	done       chan struct{}

	mu            sync.Mutex
	started       bool
	subscriptions map[string]*tableSubscription
	breakerByKey  map[string]breakerState
}

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
		"webhook": platforms.NewWebhookAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 2048
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:           cfg,
		router:        Router{},
		adapters:      adapters,
		dispatchCh:    make(chan pushJob, cfg.DispatchBuffer),
		done:          make(chan struct{}),
		subscriptions: map[string]*tableSubscription{},
		breakerByKey:  map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

// Start runs the workers until ctx ends. A disabled manager does nothing.
func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
		m.stopAllSubscriptions()
	}()
	log.Info().Int("targets", len(m.cfg.Targets)).Int("workers", m.cfg.Workers).Msg("spectator push started")
	return nil
}

func (m *Manager) OnTableStarted(meta agentgateway.TableMeta, buf *agentgateway.EventBuffer) {
	if !m.cfg.Enabled || buf == nil || meta.TableID == "" {
		return
	}

	m.mu.Lock()
	if _, ok := m.subscriptions[meta.TableID]; ok {
		m.mu.Unlock()
		return
	}
	sub := &tableSubscription{meta: meta, buf: buf, ch: buf.Subscribe()}
	m.subscriptions[meta.TableID] = sub
	m.mu.Unlock()
	metricPushTablesFollowed.Add(1)

	go m.consumeTable(sub)
}

// OnTableClosed forgets the table. The consumer keeps draining until the
// buffer closes its channel, so table_closed still goes out.
func (m *Manager) OnTableClosed(tableID string, _ agentgateway.TableSummary) {
	if tableID == "" {
		return
	}
	m.mu.Lock()
	_, ok := m.subscriptions[tableID]
	delete(m.subscriptions, tableID)
	m.mu.Unlock()
	if ok {
		metricPushTablesFollowed.Add(-1)
	}
}

func (m *Manager) stopAllSubscriptions() {
	m.mu.Lock()
	subs := make([]*tableSubscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.subscriptions = map[string]*tableSubscription{}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.buf.Unsubscribe(sub.ch)
	}
	metricPushTablesFollowed.Add(-int64(len(subs)))
}

func (m *Manager) consumeTable(sub *tableSubscription) {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-sub.ch:
			if !ok {
				return
			}
			m.handleEvent(sub.meta, ev)
		}
	}
}

func (m *Manager) handleEvent(meta agentgateway.TableMeta, ev agentgateway.StreamEvent) {
	norm, ok := normalizeEvent(meta, ev)
	if !ok {
		return
	}
	targets := m.router.MatchTargets(m.currentTargets(), norm)
	if len(targets) == 0 {
		return
	}
	formatted, ok := FormatMessage(norm)
	if !ok {
		return
	}
	for _, target := range targets {
		job := pushJob{Target: target, Event: norm, Formatted: formatted}
		if !m.enqueue(job) {
			metricPushDroppedTotal.Add(1)
		}
	}
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

// normalizeEvent reads the typed payloads the coordinator appends to a public
// feed. Anything else is skipped.
func normalizeEvent(meta agentgateway.TableMeta, ev agentgateway.StreamEvent) (NormalizedEvent, bool) {
	out := NormalizedEvent{
		EventID:  ev.EventID,
		ServerTS: ev.ServerTS,
		TableID:  ev.TableID,
		RoundID:  meta.RoundID,
	}
	if out.TableID == "" {
		out.TableID = meta.TableID
	}
	switch data := ev.Data.(type) {
	case kyoku.Event:
		out.EventType = string(data.Kind)
		out.Seq = data.Seq
		seat := int(data.Seat)
		out.Seat = &seat
		if data.Tile != mahjong.NoTile {
			out.Tile = data.Tile.String()
		}
		out.Tsumogiri = data.Tsumogiri
		out.UnderReach = data.UnderReach
		if data.Meld != nil {
			out.MeldKind = string(data.Meld.Kind)
			out.MeldTiles = mahjong.FormatTiles(data.Meld.Tiles)
		}
		if data.Outcome != nil {
			applyOutcome(&out, *data.Outcome)
		}
	case agentgateway.TableSummary:
		out.EventType = "table_closed"
		out.RoundID = data.RoundID
		out.TableStatus = data.Status
		out.CloseReason = data.Error
		if data.Outcome != nil {
			applyOutcome(&out, *data.Outcome)
		}
	default:
		return NormalizedEvent{}, false
	}
	return out, true
}

func applyOutcome(out *NormalizedEvent, o kyoku.Outcome) {
	out.Outcome = string(o.Kind)
	for _, w := range o.Wins {
		out.Winners = append(out.Winners, w.Seat.String())
	}
}

func (m *Manager) currentTargets() []PushTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushTarget, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.ConfigPath)
			if err != nil {
				metricPushConfigReloads.Add("error", 1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargetsJSON(nextRaw)
			if err != nil {
				metricPushConfigReloads.Add("error", 1)
				log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("spectator push reload rejected")
				continue
			}
			m.mu.Lock()
			m.cfg.Targets = targets
			m.mu.Unlock()
			lastRaw = nextRaw
			metricPushConfigReloads.Add("ok", 1)
		}
	}
}
