// Package kyoku drives one round of four-seat mahjong. The controller is a
// table of states, each a step that applies at most one effect and names its
// successor. The rules engine and the seats sit behind the Oracle and Actor
// interfaces.
package kyoku

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/mahjong"
)

type Options struct {
	RoundID string
	PollMin time.Duration
	PollMax time.Duration
	Sinks   []Sink
	// OnTransition runs on the controller goroutine after every edge.
	OnTransition func(from, to State)
	Logger       *zerolog.Logger
}

type Controller struct {
	oracle   Oracle
	actors   [mahjong.SeatCount]Actor
	notifier *Notifier
	resolver *Resolver
	poll     poller
	opts     Options
	log      zerolog.Logger
}

// round is the controller-local context each step reads and updates.
type round struct {
	seat       mahjong.Seat
	offered    map[ActionKind]Request
	kanTile    mahjong.Tile
	reach      bool
	reachIndex int
	auto       bool
	reoffer    bool
	window     Resolution
	outcome    *Outcome
	ended      bool
}

type step func(ctx context.Context, r *round) (State, error)

func New(oracle Oracle, actors [mahjong.SeatCount]Actor, opts Options) *Controller {
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	l = l.With().Str("round_id", opts.RoundID).Logger()
	p := newPoller(opts.PollMin, opts.PollMax)
	return &Controller{
		oracle:   oracle,
		actors:   actors,
		notifier: NewNotifier(actors, opts.Sinks, l),
		resolver: NewResolver(actors, p, l),
		poll:     p,
		opts:     opts,
		log:      l,
	}
}

func (c *Controller) steps() map[State]step {
	return map[State]step{
		StateDraw:            c.draw,
		StateSendRequests:    c.sendRequests,
		StateAwaitAbort:      c.awaitAbort,
		StateAwaitSelfWin:    c.awaitSelfWin,
		StateAwaitAddedKan:   c.awaitAddedKan,
		StateRobbingCheck:    c.robbingCheck,
		StateDrawReplacement: c.drawReplacement,
		StateAwaitClosedKan:  c.awaitClosedKan,
		StateAwaitReach:      c.awaitReach,
		StateDiscard:         c.discard,
		StateCallWindow:      c.callWindow,
		StateResolveWin:      c.resolveWin,
		StateCheckExhaustion: c.checkExhaustion,
		StateApplyCall:       c.applyCall,
		StateAdvanceTurn:     c.advanceTurn,
		StateRoundEnd:        c.roundEnd,
	}
}

// Run plays the round to its single terminal outcome.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	steps := c.steps()
	r := &round{reachIndex: -1, kanTile: mahjong.NoTile}
	state := StateDraw
	for {
		next, err := steps[state](ctx, r)
		if err != nil {
			c.log.Error().Err(err).Str("state", state.String()).Msg("round aborted")
			return Outcome{}, fmt.Errorf("%s: %w", state, err)
		}
		if state == StateRoundEnd {
			return *r.outcome, nil
		}
		if !CanTransition(state, next) {
			return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrProtocolViolation, state, next)
		}
		c.log.Debug().
			Str("state", state.String()).
			Str("next", next.String()).
			Str("seat", c.oracle.Turn().String()).
			Msg("transition")
		if c.opts.OnTransition != nil {
			c.opts.OnTransition(state, next)
		}
		state = next
	}
}

func (c *Controller) draw(ctx context.Context, r *round) (State, error) {
	c.flushAll()
	if _, err := c.oracle.Draw(); err != nil {
		c.log.Warn().Err(err).Msg("draw from empty wall")
		return c.end(r, c.exhausted())
	}
	return StateSendRequests, nil
}

func (c *Controller) drawReplacement(ctx context.Context, r *round) (State, error) {
	c.flushAll()
	if _, err := c.oracle.DrawReplacement(); err != nil {
		return 0, fmt.Errorf("%w: replacement draw: %v", ErrProtocolViolation, err)
	}
	return StateSendRequests, nil
}

// sendRequests issues every pre-discard offer at once and waits for the
// seat to answer one of them. A reached seat with nothing to decide is not
// asked at all.
func (c *Controller) sendRequests(ctx context.Context, r *round) (State, error) {
	seat := c.oracle.Turn()
	r.seat = seat
	r.offered = make(map[ActionKind]Request)
	r.reach, r.reachIndex, r.auto, r.reoffer = false, -1, false, false
	r.kanTile = mahjong.NoTile

	view := c.oracle.View(seat)
	offer := func(req Request) {
		req.Seat = seat
		req.Target = view.Drawn
		req.View = view
		r.offered[req.Kind] = req
	}
	if c.oracle.CanNineKinds() {
		offer(Request{Kind: ActNineKinds})
	}
	if c.oracle.CanTsumo() {
		offer(Request{Kind: ActTsumo})
	}
	if tiles := c.oracle.AddedKanCandidates(); len(tiles) > 0 {
		offer(Request{Kind: ActAddedKan, Tiles: tiles})
	}
	if tiles := c.oracle.ClosedKanCandidates(); len(tiles) > 0 {
		offer(Request{Kind: ActClosedKan, Tiles: tiles})
	}
	if idx := c.oracle.ReachCandidates(); len(idx) > 0 {
		offer(Request{Kind: ActReach, Indices: idx})
	}
	reached := c.oracle.IsReached(seat)
	if !reached || len(r.offered) > 0 {
		offer(Request{Kind: ActDiscard, Indices: c.discardIndices(seat, view)})
	}
	if len(r.offered) == 0 {
		return StateAwaitAbort, nil
	}
	for _, k := range TurnKinds {
		if req, ok := r.offered[k]; ok {
			c.actors[seat].Request(req)
		}
	}
	err := c.poll.until(ctx, func() bool {
		for k := range r.offered {
			if c.actors[seat].Received(k) {
				return true
			}
		}
		return false
	})
	return StateAwaitAbort, err
}

func (c *Controller) discardIndices(seat mahjong.Seat, view mahjong.View) []int {
	drawn := c.oracle.DrawnIndex()
	if c.oracle.IsReached(seat) && drawn >= 0 {
		return []int{drawn}
	}
	out := make([]int, 0, len(view.Hand)+1)
	for i := range view.Hand {
		out = append(out, i)
	}
	if drawn >= 0 {
		out = append(out, drawn)
	}
	return out
}

func (c *Controller) awaitAbort(ctx context.Context, r *round) (State, error) {
	if _, ok := c.take(r, ActNineKinds); ok {
		return c.end(r, Outcome{Kind: OutcomeNineKinds, Seat: r.seat})
	}
	return StateAwaitSelfWin, nil
}

func (c *Controller) awaitSelfWin(ctx context.Context, r *round) (State, error) {
	if _, ok := c.take(r, ActTsumo); ok {
		win, err := c.oracle.DoTsumo()
		if err == nil {
			return c.end(r, Outcome{Kind: OutcomeTsumo, Seat: r.seat, Wins: []mahjong.Win{win}})
		}
		c.rejected(r, ActTsumo, err)
	}
	return StateAwaitAddedKan, nil
}

func (c *Controller) awaitAddedKan(ctx context.Context, r *round) (State, error) {
	if act, ok := c.take(r, ActAddedKan); ok {
		m, err := c.oracle.DoAddedKan(act.Tile)
		if err == nil {
			r.kanTile = act.Tile
			if err := c.broadcast(ctx, callEvent(r.seat, m)); err != nil {
				return 0, err
			}
			return StateRobbingCheck, nil
		}
		c.rejected(r, ActAddedKan, err)
	}
	return StateAwaitClosedKan, nil
}

// robbingCheck lets the other seats win on the tile just added to a pon.
func (c *Controller) robbingCheck(ctx context.Context, r *round) (State, error) {
	offers := make(map[mahjong.Seat][]ActionKind)
	for _, s := range r.seat.Others() {
		if c.oracle.CanRobKan(s) {
			offers[s] = []ActionKind{ActRon}
		}
	}
	d, err := NewDecision(r.seat, offers)
	if err != nil {
		return 0, err
	}
	if d.Empty() {
		return StateDrawReplacement, nil
	}
	c.openWindow(d, r.kanTile, nil)
	res, err := c.resolver.Resolve(ctx, d)
	if err != nil {
		return 0, err
	}
	for _, s := range res.MissedRon {
		c.oracle.PassRon(s)
	}
	if len(res.Rons) == 0 {
		return StateDrawReplacement, nil
	}
	wins, err := c.oracle.DoRobKan(claimSeats(res.Rons))
	if err != nil {
		c.log.Warn().Err(err).Msg("robbing the kan rejected")
		return StateDrawReplacement, nil
	}
	return c.end(r, winOutcome(wins))
}

func (c *Controller) awaitClosedKan(ctx context.Context, r *round) (State, error) {
	if act, ok := c.take(r, ActClosedKan); ok {
		m, err := c.oracle.DoClosedKan(act.Tile)
		if err == nil {
			if err := c.broadcast(ctx, callEvent(r.seat, m)); err != nil {
				return 0, err
			}
			return StateDrawReplacement, nil
		}
		c.rejected(r, ActClosedKan, err)
	}
	return StateAwaitReach, nil
}

func (c *Controller) awaitReach(ctx context.Context, r *round) (State, error) {
	if c.oracle.IsReached(r.seat) {
		r.auto = true
		return StateDiscard, nil
	}
	if act, ok := c.take(r, ActReach); ok {
		r.reach = true
		r.reachIndex = act.Index
	}
	return StateDiscard, nil
}

func (c *Controller) discard(ctx context.Context, r *round) (State, error) {
	seat := r.seat
	if r.auto {
		d, err := c.oracle.Discard(c.oracle.DrawnIndex())
		if err != nil {
			return 0, fmt.Errorf("%w: locked discard: %v", ErrProtocolViolation, err)
		}
		return StateCallWindow, c.broadcast(ctx, discardEvent(seat, d, true))
	}
	if r.reach {
		r.reach = false
		d, err := c.oracle.DoReach(r.reachIndex)
		if err == nil {
			return StateCallWindow, c.broadcast(ctx, reachEvent(seat, d))
		}
		c.rejected(r, ActReach, err)
	}
	a := c.actors[seat]
	if r.reoffer && !a.Received(ActDiscard) {
		req := r.offered[ActDiscard]
		req.View = c.oracle.View(seat)
		a.Request(req)
	}
	r.reoffer = false
	if err := c.poll.until(ctx, func() bool { return a.Received(ActDiscard) }); err != nil {
		return 0, err
	}
	act, _ := a.Fetch(ActDiscard)
	d, err := c.oracle.Discard(act.Index)
	if err != nil {
		c.rejected(r, ActDiscard, err)
		return StateDiscard, nil
	}
	return StateCallWindow, c.broadcast(ctx, discardEvent(seat, d, false))
}

// callWindow offers the discard to the other three seats and settles the
// claims by priority.
func (c *Controller) callWindow(ctx context.Context, r *round) (State, error) {
	from, tile := c.oracle.LastDiscard()
	offers := make(map[mahjong.Seat][]ActionKind)
	sets := make(map[mahjong.Seat]map[ActionKind][][]int)
	for _, s := range from.Others() {
		var kinds []ActionKind
		if c.oracle.CanRon(s) {
			kinds = append(kinds, ActRon)
		}
		if c.oracle.CanOpenKan(s) {
			kinds = append(kinds, ActOpenKan)
		}
		byKind := make(map[ActionKind][][]int)
		if pon := c.oracle.PonCandidates(s); len(pon) > 0 {
			kinds = append(kinds, ActPon)
			byKind[ActPon] = pon
		}
		if chi := c.oracle.ChiCandidates(s); len(chi) > 0 {
			kinds = append(kinds, ActChi)
			byKind[ActChi] = chi
		}
		if len(kinds) > 0 {
			offers[s] = kinds
			sets[s] = byKind
		}
	}
	d, err := NewDecision(from, offers)
	if err != nil {
		return 0, err
	}
	c.openWindow(d, tile, sets)
	res, err := c.resolver.Resolve(ctx, d)
	if err != nil {
		return 0, err
	}
	r.window = res
	return StateResolveWin, nil
}

// openWindow clears each eligible seat's stale answers, then sends its offers.
func (c *Controller) openWindow(d *Decision, tile mahjong.Tile, sets map[mahjong.Seat]map[ActionKind][][]int) {
	for _, s := range d.order() {
		a := c.actors[s]
		a.Flush()
		view := c.oracle.View(s)
		for _, k := range d.Kinds(s) {
			a.Request(Request{Seat: s, Kind: k, Target: tile, Sets: sets[s][k], View: view})
		}
	}
}

func (c *Controller) resolveWin(ctx context.Context, r *round) (State, error) {
	for _, s := range r.window.MissedRon {
		c.oracle.PassRon(s)
	}
	if len(r.window.Rons) == 0 {
		return StateCheckExhaustion, nil
	}
	wins, err := c.oracle.DoRon(claimSeats(r.window.Rons))
	if err != nil {
		c.log.Warn().Err(err).Msg("ron rejected")
		r.window = Resolution{}
		return StateCheckExhaustion, nil
	}
	return c.end(r, winOutcome(wins))
}

func (c *Controller) checkExhaustion(ctx context.Context, r *round) (State, error) {
	switch {
	case c.oracle.IsFourReach():
		return c.end(r, Outcome{Kind: OutcomeFourReach, Seat: c.oracle.Turn()})
	case c.oracle.IsFourWinds():
		return c.end(r, Outcome{Kind: OutcomeFourWinds, Seat: c.oracle.Turn()})
	case c.oracle.IsFourKans():
		return c.end(r, Outcome{Kind: OutcomeFourKans, Seat: c.oracle.Turn()})
	}
	return StateApplyCall, nil
}

func (c *Controller) applyCall(ctx context.Context, r *round) (State, error) {
	call := r.window.Call
	r.window = Resolution{}
	defer c.flushAll()
	if call == nil {
		return StateAdvanceTurn, nil
	}
	var (
		m    mahjong.Meld
		err  error
		next = StateSendRequests
	)
	switch call.Action.Kind {
	case ActOpenKan:
		m, err = c.oracle.DoOpenKan(call.Seat)
		next = StateDrawReplacement
	case ActPon:
		m, err = c.oracle.DoPon(call.Seat, call.Action.Indices)
	case ActChi:
		m, err = c.oracle.DoChi(call.Seat, call.Action.Indices)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownAction, call.Action.Kind)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("seat", call.Seat.String()).Str("kind", string(call.Action.Kind)).Msg("call rejected")
		return StateAdvanceTurn, nil
	}
	return next, c.broadcast(ctx, callEvent(call.Seat, m))
}

func (c *Controller) advanceTurn(ctx context.Context, r *round) (State, error) {
	if c.oracle.IsWallExhausted() {
		return c.end(r, c.exhausted())
	}
	c.oracle.NextTurn()
	return StateDraw, nil
}

func (c *Controller) roundEnd(ctx context.Context, r *round) (State, error) {
	if r.outcome == nil || r.ended {
		return 0, fmt.Errorf("%w: round end without a single outcome", ErrProtocolViolation)
	}
	r.ended = true
	return StateRoundEnd, c.broadcast(ctx, roundEndEvent(*r.outcome))
}

func (c *Controller) end(r *round, o Outcome) (State, error) {
	r.outcome = &o
	c.log.Info().Str("outcome", string(o.Kind)).Str("seat", o.Seat.String()).Int("wins", len(o.Wins)).Msg("round decided")
	return StateRoundEnd, nil
}

func (c *Controller) exhausted() Outcome {
	return Outcome{Kind: OutcomeExhausted, Seat: c.oracle.Turn(), Tenpai: c.oracle.TenpaiHands()}
}

// take consumes the turn seat's answer of kind, if that kind was offered.
func (c *Controller) take(r *round, kind ActionKind) (Action, bool) {
	if _, ok := r.offered[kind]; !ok {
		return Action{}, false
	}
	a := c.actors[r.seat]
	if !a.Received(kind) {
		return Action{}, false
	}
	act, ok := a.Fetch(kind)
	act.Kind = kind
	return act, ok
}

// rejected logs an unplayable answer. The seat is asked for a discard again.
func (c *Controller) rejected(r *round, kind ActionKind, err error) {
	c.log.Warn().Err(err).Str("seat", r.seat.String()).Str("kind", string(kind)).Msg("action rejected")
	r.reoffer = true
}

func (c *Controller) broadcast(ctx context.Context, ev Event) error {
	ev, err := c.notifier.Broadcast(ctx, ev)
	if err != nil {
		return err
	}
	c.log.Info().
		Uint64("seq", ev.Seq).
		Str("event", string(ev.Kind)).
		Str("seat", ev.Seat.String()).
		Str("tile", ev.Tile.String()).
		Msg("broadcast")
	return nil
}

func (c *Controller) flushAll() {
	for _, a := range c.actors {
		a.Flush()
	}
}

// winOutcome applies the wins first; three or more turn the round into an
// abort that still carries the claims.
func winOutcome(wins []mahjong.Win) Outcome {
	o := Outcome{Kind: OutcomeRon, Wins: wins}
	if len(wins) > 0 {
		o.Seat = wins[0].Seat
		if wins[0].Tsumo {
			o.Kind = OutcomeTsumo
		}
	}
	if len(wins) >= 3 {
		o.Kind = OutcomeThreeRon
		o.Seat = wins[0].From
	}
	return o
}

func claimSeats(claims []Claim) []mahjong.Seat {
	out := make([]mahjong.Seat, len(claims))
	for i, c := range claims {
		out[i] = c.Seat
	}
	return out
}
