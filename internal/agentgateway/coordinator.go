// Package agentgateway hosts kyoku tables for remote agents. Each table runs
// one round on its own goroutine; remote seats are fed through per-seat event
// buffers and answer over HTTP or a websocket.
package agentgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kyoku-table/internal/actor"
	"kyoku-table/internal/config"
	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/store"
	"kyoku-table/internal/table"
)

const defaultMaxTables = 64

// Options configures a Coordinator. A nil Store keeps rounds in memory only.
type Options struct {
	Store      *store.Store
	Round      config.RoundConfig
	BufferSize int
	MaxTables  int
}

type Coordinator struct {
	store      *store.Store
	round      config.RoundConfig
	bufferSize int
	maxTables  int

	mu            sync.Mutex
	tables        map[string]*tableRuntime
	tableObserver TableLifecycleObserver
	closed        bool
	wg            sync.WaitGroup
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.MaxTables <= 0 {
		opts.MaxTables = defaultMaxTables
	}
	return &Coordinator{
		store:      opts.Store,
		round:      opts.Round,
		bufferSize: opts.BufferSize,
		maxTables:  opts.MaxTables,
		tables:     map[string]*tableRuntime{},
	}
}

// CreateTable deals a fresh wall and starts the round in the background.
func (c *Coordinator) CreateTable(ctx context.Context, req CreateTableRequest) (CreateTableResponse, error) {
	metricTableCreateTotal.Add(1)
	res, err := c.createTable(ctx, req)
	if err != nil {
		metricTableCreateErrors.Add(1)
	}
	return res, err
}

func (c *Coordinator) createTable(ctx context.Context, req CreateTableRequest) (CreateTableResponse, error) {
	modes, err := parseSeatModes(req.Seats)
	if err != nil {
		return CreateTableResponse{}, err
	}
	dealer := mahjong.SeatEast
	if req.Dealer != "" {
		dealer, err = mahjong.ParseSeat(req.Dealer)
		if err != nil {
			return CreateTableResponse{}, fmt.Errorf("%w: %v", errInvalidDealer, err)
		}
	}
	seed := c.wallSeed(req.WallSeed)
	tb, err := table.Deal(rand.New(rand.NewSource(seed)), dealer)
	if err != nil {
		return CreateTableResponse{}, err
	}

	rt := newTableRuntime(store.NewID(), dealer, seed, modes, c.bufferSize, actor.Timeouts{
		Discard: c.round.DiscardTimeout,
		Call:    c.round.CallTimeout,
	})
	if err := c.reserve(rt); err != nil {
		return CreateTableResponse{}, err
	}

	roundID := store.NewID()
	if c.store != nil {
		roundID, err = c.store.CreateRound(ctx, rt.id, int(dealer), seed)
		if err != nil {
			c.release(rt.id)
			return CreateTableResponse{}, err
		}
	}
	c.start(rt, tb, roundID)
	log.Info().
		Str("table_id", rt.id).
		Str("round_id", roundID).
		Str("dealer", dealer.String()).
		Int64("wall_seed", seed).
		Strs("seats", modes[:]).
		Msg("table started")
	return rt.createResponse(), nil
}

func parseSeatModes(in []string) ([mahjong.SeatCount]string, error) {
	modes := [mahjong.SeatCount]string{SeatModeRemote, SeatModeAI, SeatModeAI, SeatModeAI}
	if len(in) == 0 {
		return modes, nil
	}
	if len(in) != mahjong.SeatCount {
		return modes, fmt.Errorf("%w: want %d seats, got %d", errInvalidSeats, mahjong.SeatCount, len(in))
	}
	for i, m := range in {
		switch m {
		case SeatModeAI, SeatModeRemote:
			modes[i] = m
		default:
			return modes, fmt.Errorf("%w: %q", errInvalidSeats, m)
		}
	}
	return modes, nil
}

func (c *Coordinator) wallSeed(requested *int64) int64 {
	switch {
	case requested != nil:
		return *requested
	case c.round.WallSeed != 0:
		return c.round.WallSeed
	}
	return time.Now().UnixNano()
}

func (c *Coordinator) reserve(rt *tableRuntime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errShuttingDown
	}
	running := 0
	for _, t := range c.tables {
		if t.running() {
			running++
		}
	}
	if running >= c.maxTables {
		return errTooManyTables
	}
	c.tables[rt.id] = rt
	return nil
}

func (c *Coordinator) release(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, tableID)
}

func (c *Coordinator) start(rt *tableRuntime, tb *table.Table, roundID string) {
	rt.setRoundID(roundID)
	sinks := []kyoku.Sink{kyoku.SinkFunc(rt.publish)}
	if c.store != nil {
		sinks = append(sinks, store.NewRoundSink(c.store, roundID))
	}
	l := log.With().Str("table_id", rt.id).Logger()
	ctrl := kyoku.New(tb, rt.actors(), kyoku.Options{
		RoundID:      roundID,
		PollMin:      c.round.PollMin,
		PollMax:      c.round.PollMax,
		Sinks:        sinks,
		OnTransition: rt.transition,
		Logger:       &l,
	})

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.round.RoundTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.round.RoundTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	rt.setCancel(cancel)

	c.mu.Lock()
	if c.closed {
		cancel()
	}
	obs := c.tableObserver
	c.wg.Add(1)
	c.mu.Unlock()
	if obs != nil {
		obs.OnTableStarted(rt.meta(), rt.public)
	}
	metricTablesActive.Add(1)

	go func() {
		defer c.wg.Done()
		defer cancel()
		out, err := ctrl.Run(ctx)
		c.finish(rt, out, err)
	}()
}

func (c *Coordinator) finish(rt *tableRuntime, out kyoku.Outcome, runErr error) {
	metricTablesActive.Add(-1)
	metricSeatTimeoutsTotal.Add(int64(rt.timeouts()))
	rt.end(out, runErr)

	sum := rt.summary()
	l := log.With().Str("table_id", rt.id).Str("round_id", sum.RoundID).Logger()
	if runErr != nil {
		metricRoundFailedTotal.Add(1)
		l.Error().Err(runErr).Msg("round failed")
		c.recordFailure(sum.RoundID, runErr)
	} else {
		metricRoundFinishedTotal.Add(1)
		metricRoundOutcomes.Add(string(out.Kind), 1)
		l.Info().Str("outcome", string(out.Kind)).Str("seat", out.Seat.String()).Msg("round finished")
	}

	c.mu.Lock()
	obs := c.tableObserver
	c.mu.Unlock()
	if obs != nil {
		obs.OnTableClosed(rt.id, sum)
	}
}

func (c *Coordinator) recordFailure(roundID string, runErr error) {
	if c.store == nil {
		return
	}
	detail, _ := json.Marshal(map[string]string{"error": runErr.Error()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.store.FinishRound(ctx, roundID, store.RoundStatusFailed, "", nil, detail)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("round_id", roundID).Msg("record failed round")
	}
}

// Shutdown stops new tables, cancels running rounds and waits for them.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	for _, rt := range c.tables {
		rt.stop()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) table(tableID string) (*tableRuntime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt := c.tables[tableID]
	if rt == nil {
		return nil, errTableNotFound
	}
	return rt, nil
}

func (c *Coordinator) seat(tableID, seat string) (*tableRuntime, *seatRuntime, error) {
	rt, err := c.table(tableID)
	if err != nil {
		return nil, nil, err
	}
	s, err := mahjong.ParseSeat(seat)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errSeatNotFound, err)
	}
	sr := rt.seats[s]
	if sr.remote == nil {
		return nil, nil, errSeatNotRemote
	}
	return rt, sr, nil
}

// Table returns the public summary of one table.
func (c *Coordinator) Table(tableID string) (TableSummary, error) {
	rt, err := c.table(tableID)
	if err != nil {
		return TableSummary{}, err
	}
	return rt.summary(), nil
}

// ListTables returns every known table, oldest first.
func (c *Coordinator) ListTables() []TableSummary {
	c.mu.Lock()
	rts := make([]*tableRuntime, 0, len(c.tables))
	for _, rt := range c.tables {
		rts = append(rts, rt)
	}
	c.mu.Unlock()
	sort.Slice(rts, func(i, j int) bool { return rts[i].id < rts[j].id })
	out := make([]TableSummary, 0, len(rts))
	for _, rt := range rts {
		out = append(out, rt.summary())
	}
	return out
}

// PublicBuffer is the spectator feed of a table: broadcast events only.
func (c *Coordinator) PublicBuffer(tableID string) (*EventBuffer, error) {
	rt, err := c.table(tableID)
	if err != nil {
		return nil, err
	}
	return rt.public, nil
}

// SeatBuffer is the private feed of a remote seat: its offers and events.
func (c *Coordinator) SeatBuffer(tableID, seat string) (*EventBuffer, error) {
	_, sr, err := c.seat(tableID, seat)
	if err != nil {
		return nil, err
	}
	return sr.buffer, nil
}

// SeatState reports what a remote seat may see and the offers it still owes.
func (c *Coordinator) SeatState(tableID, seat string) (SeatState, error) {
	rt, sr, err := c.seat(tableID, seat)
	if err != nil {
		return SeatState{}, err
	}
	sum := rt.summary()
	st := SeatState{
		TableID:     rt.id,
		RoundID:     sum.RoundID,
		Seat:        sr.seat.String(),
		Status:      sum.Status,
		View:        sr.lastView(),
		Pending:     sr.remote.Pending(),
		TimedOut:    sr.remote.TimedOut(),
		LastEventID: sr.buffer.LastEventID(),
		Outcome:     sum.Outcome,
	}
	for i := range st.Pending {
		st.Pending[i].View = mahjong.View{}
	}
	return st, nil
}
