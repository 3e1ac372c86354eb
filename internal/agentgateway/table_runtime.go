package agentgateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kyoku-table/internal/actor"
	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/store"
)

// Size of the per-seat request_id memory used for idempotent submits.
const answeredLimit = 256

type tableRuntime struct {
	id       string
	dealer   mahjong.Seat
	wallSeed int64
	seats    [mahjong.SeatCount]*seatRuntime
	public   *EventBuffer

	mu        sync.Mutex
	roundID   string
	cancel    context.CancelFunc
	status    string
	state     kyoku.State
	lastSeq   uint64
	outcome   *kyoku.Outcome
	err       string
	startedAt time.Time
	endedAt   *time.Time
}

// seatRuntime is one seat of a table. Remote seats carry their own feed and
// double as the actor.Outbox of their Remote.
type seatRuntime struct {
	tableID string
	seat    mahjong.Seat
	mode    string
	ai      *actor.AI
	remote  *actor.Remote
	buffer  *EventBuffer

	mu       sync.Mutex
	view     *mahjong.View
	answered map[string]ActionResponse
	order    []string
}

func newTableRuntime(id string, dealer mahjong.Seat, seed int64, modes [mahjong.SeatCount]string, bufSize int, t actor.Timeouts) *tableRuntime {
	rt := &tableRuntime{
		id:        id,
		dealer:    dealer,
		wallSeed:  seed,
		public:    NewEventBuffer(bufSize),
		status:    store.RoundStatusRunning,
		state:     kyoku.StateDraw,
		startedAt: time.Now(),
	}
	for i, mode := range modes {
		s := &seatRuntime{tableID: id, seat: mahjong.Seat(i), mode: mode}
		switch mode {
		case SeatModeAI:
			s.ai = actor.NewAI(s.seat, log.With().Str("table_id", id).Logger())
		case SeatModeRemote:
			s.buffer = NewEventBuffer(bufSize)
			s.answered = map[string]ActionResponse{}
			s.remote = actor.NewRemote(s.seat, s, t)
		}
		rt.seats[i] = s
	}
	return rt
}

func (rt *tableRuntime) actors() [mahjong.SeatCount]kyoku.Actor {
	var out [mahjong.SeatCount]kyoku.Actor
	for i, s := range rt.seats {
		if s.remote != nil {
			out[i] = s.remote
		} else {
			out[i] = s.ai
		}
	}
	return out
}

func (rt *tableRuntime) setRoundID(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.roundID = id
}

func (rt *tableRuntime) setCancel(cancel context.CancelFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.cancel = cancel
}

func (rt *tableRuntime) stop() {
	rt.mu.Lock()
	cancel := rt.cancel
	rt.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (rt *tableRuntime) running() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.status == store.RoundStatusRunning
}

func (rt *tableRuntime) transition(_, to kyoku.State) {
	rt.mu.Lock()
	rt.state = to
	rt.mu.Unlock()
}

// publish feeds the spectator buffer. It runs on the controller goroutine.
func (rt *tableRuntime) publish(_ context.Context, ev kyoku.Event) error {
	rt.mu.Lock()
	rt.lastSeq = ev.Seq
	if ev.Kind == kyoku.EventRoundEnd {
		rt.state = kyoku.StateRoundEnd
	}
	rt.mu.Unlock()
	rt.public.Append("event", rt.id, ev)
	return nil
}

func (rt *tableRuntime) end(out kyoku.Outcome, runErr error) {
	now := time.Now()
	rt.mu.Lock()
	rt.endedAt = &now
	if runErr != nil {
		rt.status = store.RoundStatusFailed
		rt.err = runErr.Error()
	} else {
		rt.status = store.RoundStatusFinished
		rt.outcome = &out
	}
	rt.mu.Unlock()

	sum := rt.summary()
	buffers := []*EventBuffer{rt.public}
	for _, s := range rt.seats {
		if s.buffer != nil {
			buffers = append(buffers, s.buffer)
		}
	}
	for _, b := range buffers {
		b.Append("table_closed", rt.id, sum)
		b.Close()
	}
}

func (rt *tableRuntime) timeouts() int {
	n := 0
	for _, s := range rt.seats {
		if s.remote != nil {
			n += s.remote.TimedOut()
		}
	}
	return n
}

func (rt *tableRuntime) meta() TableMeta {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return TableMeta{TableID: rt.id, RoundID: rt.roundID, Dealer: rt.dealer}
}

func (rt *tableRuntime) summary() TableSummary {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sum := TableSummary{
		TableID:   rt.id,
		RoundID:   rt.roundID,
		Status:    rt.status,
		State:     rt.state.String(),
		Dealer:    rt.dealer.String(),
		LastSeq:   rt.lastSeq,
		Outcome:   rt.outcome,
		Error:     rt.err,
		StartedAt: rt.startedAt,
		EndedAt:   rt.endedAt,
	}
	for _, s := range rt.seats {
		sum.Seats = append(sum.Seats, s.mode)
	}
	return sum
}

func (rt *tableRuntime) createResponse() CreateTableResponse {
	rt.mu.Lock()
	roundID := rt.roundID
	rt.mu.Unlock()
	res := CreateTableResponse{
		TableID:   rt.id,
		RoundID:   roundID,
		Dealer:    rt.dealer.String(),
		WallSeed:  rt.wallSeed,
		StreamURL: "/api/tables/" + rt.id + "/events",
	}
	for _, s := range rt.seats {
		info := SeatInfo{Seat: s.seat.String(), Mode: s.mode}
		if s.remote != nil {
			base := "/api/tables/" + rt.id + "/seats/" + s.seat.String()
			info.StreamURL = base + "/events"
			info.ActionURL = base + "/actions"
			info.SocketURL = "/ws/tables/" + rt.id + "/seats/" + s.seat.String()
		}
		res.Seats = append(res.Seats, info)
	}
	return res
}

// Offer implements actor.Outbox. The view travels with the offer and is kept
// as the seat's latest snapshot.
func (s *seatRuntime) Offer(req kyoku.Request) {
	v := req.View
	s.mu.Lock()
	s.view = &v
	s.mu.Unlock()
	s.buffer.Append("request", s.tableID, req)
}

func (s *seatRuntime) Deliver(ev kyoku.Event) {
	s.buffer.Append("event", s.tableID, ev)
}

func (s *seatRuntime) lastView() *mahjong.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *seatRuntime) answer(requestID string) (ActionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.answered[requestID]
	return res, ok
}

func (s *seatRuntime) remember(res ActionResponse) {
	if res.RequestID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answered[res.RequestID]; ok {
		return
	}
	s.answered[res.RequestID] = res
	s.order = append(s.order, res.RequestID)
	if len(s.order) > answeredLimit {
		delete(s.answered, s.order[0])
		s.order = s.order[1:]
	}
}
