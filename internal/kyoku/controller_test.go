package kyoku

import (
	"math/rand"
	"strings"
	"testing"

	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/table"
)

func TestDeclineAllAdvancesToNextDraw(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 66s 777s 888s 99s",
		"111z 222z 333z 444z 6s",
	}, "6s 1p", "")
	as, ss := actors()
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	if got := ss[mahjong.SeatSouth].requestsOf(ActChi); len(got) != 1 {
		t.Fatalf("south chi offers = %d, want 1", len(got))
	}
	if got := ss[mahjong.SeatNorth].requestsOf(ActRon); len(got) != 1 {
		t.Fatalf("north ron offers = %d, want 1", len(got))
	}
	cw := indexOf(trace, 0, "CALL_WINDOW")
	adv := indexOf(trace, cw, "ADVANCE_TURN")
	if cw < 0 || adv < 0 || trace[adv+1] != "DRAW" {
		t.Fatalf("trace = %v", trace)
	}
	reqs := ss[mahjong.SeatSouth].requestsOf(ActDiscard)
	if len(reqs) != 1 || reqs[0].View.Turn != mahjong.SeatSouth || reqs[0].View.Drawn != mahjong.Pin1 {
		t.Fatalf("south discard request = %+v", reqs)
	}
	if !tb.Furiten(mahjong.SeatNorth) {
		t.Fatal("declined ron must leave north furiten")
	}
	if _, ok := out.Tenpai[mahjong.SeatEast]; !ok {
		t.Fatalf("tenpai = %v, want east revealed", out.Tenpai)
	}
	assertSingleEnd(t, ss)
	if n := len(ss[0].events); n != 3 {
		t.Fatalf("events = %d, want two discards and the end", n)
	}
}

func TestKanCallBeatsChiAndDrawsReplacement(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"1112223334445z",
	}, "6s 1p 2p", "6666z 7z 1p 9p")
	as, ss := actors(nil, accepting(ActChi), accepting(ActOpenKan), nil)
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s", out.Kind)
	}
	evs := ss[mahjong.SeatNorth].events
	if evs[1].Kind != EventCall || evs[1].Seat != mahjong.SeatWest || evs[1].Meld.Kind != mahjong.MeldOpenKan {
		t.Fatalf("second event = %+v", evs[1])
	}
	if evs[2].Kind != EventDiscard || evs[2].Seat != mahjong.SeatWest || evs[2].Tile != mahjong.Green {
		t.Fatalf("west discard after kan = %+v", evs[2])
	}
	if melds := tb.View(mahjong.SeatSouth).Melds[mahjong.SeatSouth]; len(melds) != 0 {
		t.Fatalf("south chi applied: %v", melds)
	}
	call := indexOf(trace, 0, "ev:call:open_kan")
	repl := indexOf(trace, call, "DRAW_REPLACEMENT")
	disc := indexOf(trace, call, "DISCARD")
	if call < 0 || repl < 0 || disc < repl {
		t.Fatalf("trace = %v", trace)
	}
	reqs := ss[mahjong.SeatWest].requestsOf(ActDiscard)
	if len(reqs) != 1 || reqs[0].View.Drawn != mahjong.Green {
		t.Fatalf("west discard requests = %+v", reqs)
	}
	assertSingleEnd(t, ss)
}

func ronBoard(t *testing.T) *table.Table {
	return board(t, [4]string{
		"234m 567m 234s 567s 8s",
		"123p 456p 789p 123s 9m",
		"444s 555s 666s 777s 9m",
		"111z 222z 333z 444z 9m",
	}, "9m", "")
}

func TestDoubleRonScoresBoth(t *testing.T) {
	as, ss := actors(nil, accepting(ActRon), accepting(ActRon), nil)
	out, _ := run(t, ronBoard(t), as)
	if out.Kind != OutcomeRon || len(out.Wins) != 2 {
		t.Fatalf("outcome = %s with %d wins, want ron with 2", out.Kind, len(out.Wins))
	}
	if out.Seat != mahjong.SeatSouth || out.Wins[1].Seat != mahjong.SeatWest || out.Wins[0].From != mahjong.SeatEast {
		t.Fatalf("wins = %+v", out.Wins)
	}
	assertSingleEnd(t, ss)
}

func TestTripleRonAborts(t *testing.T) {
	as, ss := actors(nil, accepting(ActRon), accepting(ActRon), accepting(ActRon))
	out, _ := run(t, ronBoard(t), as)
	if out.Kind != OutcomeThreeRon || !out.Kind.IsAbort() {
		t.Fatalf("outcome = %s, want three_ron abort", out.Kind)
	}
	if len(out.Wins) != 3 || out.Seat != mahjong.SeatEast {
		t.Fatalf("outcome = %+v", out)
	}
	last := ss[0].events[len(ss[0].events)-1]
	if last.Outcome == nil || last.Outcome.Kind != OutcomeThreeRon {
		t.Fatalf("round end event = %+v", last)
	}
	assertSingleEnd(t, ss)
}

func reachBoard(t *testing.T) *table.Table {
	return board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"111z 222z 333z 444z 1p",
	}, "5z 6z 7z 5z 9p 9p 9p 8p", "")
}

func countEvents(evs []Event, k EventKind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func TestFourReachAborts(t *testing.T) {
	r := accepting(ActReach)
	as, ss := actors(r, r, r, r)
	out, _ := run(t, reachBoard(t), as)
	if out.Kind != OutcomeFourReach {
		t.Fatalf("outcome = %s, want four_reach", out.Kind)
	}
	if n := countEvents(ss[0].events, EventReach); n != 4 {
		t.Fatalf("reach events = %d, want 4", n)
	}
	if !ss[0].events[0].IsLastTile {
		t.Fatal("reach on the drawn tile should be flagged")
	}
	assertSingleEnd(t, ss)
}

func TestThreeReachPlaysOn(t *testing.T) {
	r := accepting(ActReach)
	as, ss := actors(r, r, r, nil)
	out, _ := run(t, reachBoard(t), as)
	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	if n := countEvents(ss[0].events, EventReach); n != 3 {
		t.Fatalf("reach events = %d, want 3", n)
	}
	auto := 0
	for _, ev := range ss[0].events {
		if ev.Kind == EventDiscard && ev.UnderReach {
			auto++
		}
	}
	if auto != 3 {
		t.Fatalf("locked discards = %d, want 3", auto)
	}
	if got := ss[mahjong.SeatEast].requestsOf(ActDiscard); len(got) != 1 {
		t.Fatalf("reached east was asked to discard %d times, want once", len(got))
	}
	assertSingleEnd(t, ss)
}

func TestTsumoEndsRound(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"1112223334445z",
	}, "5p 1m", "")
	as, ss := actors(accepting(ActTsumo))
	out, _ := run(t, tb, as)
	if out.Kind != OutcomeTsumo || len(out.Wins) != 1 || !out.Wins[0].Tsumo {
		t.Fatalf("outcome = %+v", out)
	}
	if len(ss[0].events) != 1 {
		t.Fatalf("events = %v, want only the round end", ss[0].events)
	}
	assertSingleEnd(t, ss)
}

func TestDeclinedTsumoDiscards(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"1112223334445z",
	}, "5p", "")
	as, ss := actors()
	out, _ := run(t, tb, as)
	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	if got := ss[0].requestsOf(ActTsumo); len(got) != 1 {
		t.Fatalf("tsumo offers = %d, want 1", len(got))
	}
	if ss[0].events[0].Kind != EventDiscard || !ss[0].events[0].Tsumogiri {
		t.Fatalf("first event = %+v", ss[0].events[0])
	}
}

func TestNineKindsAbort(t *testing.T) {
	tb := board(t, [4]string{
		"19m 19p 19s 1234z 258m",
		"222s 333s 444s 555s 6s",
		"666s 777s 888s 2p 3p 4p 5p",
		"2345678p 234567m",
	}, "7z 8p", "")
	as, ss := actors(accepting(ActNineKinds))
	out, _ := run(t, tb, as)
	if out.Kind != OutcomeNineKinds || out.Seat != mahjong.SeatEast {
		t.Fatalf("outcome = %+v", out)
	}
	assertSingleEnd(t, ss)
}

func TestUnplayableDiscardIsOfferedAgain(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"1112223334445z",
	}, "9p", "")
	tries := 0
	clumsy := func(req Request) (Action, bool) {
		if req.Kind == ActDiscard {
			tries++
			if tries == 1 {
				return Action{Kind: ActDiscard, Index: 99}, true
			}
		}
		return tsumogiri(req)
	}
	as, ss := actors(clumsy)
	out, trace := run(t, tb, as)
	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s", out.Kind)
	}
	if got := ss[0].requestsOf(ActDiscard); len(got) != 2 {
		t.Fatalf("discard requests = %d, want 2", len(got))
	}
	d := indexOf(trace, 0, "DISCARD")
	if d < 0 || trace[d+1] != "DISCARD" {
		t.Fatalf("trace = %v", trace)
	}
}

func randomPolicy(rng *rand.Rand) policy {
	return func(req Request) (Action, bool) {
		switch req.Kind {
		case ActAddedKan, ActClosedKan:
			return Action{Kind: req.Kind, Tile: req.Tiles[rng.Intn(len(req.Tiles))]}, true
		case ActOpenKan:
			return Action{Kind: ActOpenKan}, true
		case ActPon, ActChi:
			if rng.Intn(2) == 0 {
				return Action{Kind: req.Kind, Indices: req.Sets[rng.Intn(len(req.Sets))]}, true
			}
			return Action{Kind: ActPass}, true
		case ActRon, ActTsumo:
			if rng.Intn(3) == 0 {
				return Action{Kind: req.Kind}, true
			}
			if req.Kind == ActRon {
				return Action{Kind: ActPass}, true
			}
		case ActDiscard:
			return Action{Kind: ActDiscard, Index: req.Indices[rng.Intn(len(req.Indices))]}, true
		}
		return Action{}, false
	}
}

func TestKanAlwaysFollowedByReplacementDraw(t *testing.T) {
	kans := 0
	for seed := int64(1); seed <= 120; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tb, err := table.Deal(rng, mahjong.Seat(seed%4))
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		p := randomPolicy(rng)
		as, ss := actors(p, p, p, p)
		_, trace := run(t, tb, as)
		assertSingleEnd(t, ss)
		for i, e := range trace {
			if !strings.HasPrefix(e, "ev:call:") || !mahjong.MeldKind(strings.TrimPrefix(e, "ev:call:")).IsKan() {
				continue
			}
			kans++
			disc := indexOf(trace, i, "DISCARD")
			if disc < 0 {
				continue
			}
			repl := indexOf(trace, i, "DRAW_REPLACEMENT")
			if repl < 0 || repl > disc {
				t.Fatalf("seed %d: kan at %d not followed by a replacement draw: %v", seed, i, trace[i:disc+1])
			}
		}
	}
	if kans == 0 {
		t.Fatal("no kan was declared across the sampled rounds")
	}
}

// drawnBetween reports whether any draw state sits in trace[from:to].
func drawnBetween(trace []string, from, to int) bool {
	for _, e := range trace[from:to] {
		if e == "DRAW" || e == "DRAW_REPLACEMENT" {
			return true
		}
	}
	return false
}

// ronOnce passes the first ron offer and takes every later one.
func ronOnce() policy {
	rons := 0
	return func(req Request) (Action, bool) {
		if req.Kind == ActRon {
			rons++
			if rons > 1 {
				return Action{Kind: ActRon}, true
			}
			return Action{Kind: ActPass}, true
		}
		return tsumogiri(req)
	}
}

func TestRobbingTheAddedKan(t *testing.T) {
	// South throws 5p: west passes the ron, east pons. East later draws
	// the fourth 5p and adds it while west's 4p6p wait is live again.
	tb := board(t, [4]string{
		"1357m 79p 2468s 55p 3z",
		"111z 222z 333z 444z 5z",
		"123m 456m 789m 11s 46p",
		"222s 333s 444s 666s 7s",
	}, "9s 5p 9s 8p 9s 5p 8p", "7z 7z")
	as, ss := actors(accepting(ActPon, ActAddedKan), nil, ronOnce(), nil)
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeRon || len(out.Wins) != 1 {
		t.Fatalf("outcome = %+v, want a single ron", out)
	}
	w := out.Wins[0]
	if w.Seat != mahjong.SeatWest || w.From != mahjong.SeatEast || w.Tile != mahjong.Pin5 || !w.Robbed {
		t.Fatalf("win = %+v, want west robbing east's 5p", w)
	}
	if got := ss[mahjong.SeatWest].requestsOf(ActRon); len(got) != 2 {
		t.Fatalf("west ron offers = %d, want 2", len(got))
	}
	k := indexOf(trace, 0, "ev:call:added_kan")
	if k < 0 || k+2 >= len(trace) || trace[k+1] != "ROBBING_CHECK" || trace[k+2] != "ROUND_END" {
		t.Fatalf("trace = %v", trace)
	}
	if indexOf(trace, k, "DRAW_REPLACEMENT") >= 0 {
		t.Fatal("robbed kan drew a replacement")
	}
	assertSingleEnd(t, ss)
}

func TestPonDiscardsWithoutDraw(t *testing.T) {
	tb := board(t, [4]string{
		"1357m 79p 2468s 55p 3z",
		"111z 222z 333z 444z 5z",
		"123m 456m 789m 11s 46p",
		"222s 333s 444s 666s 7s",
	}, "9s 5p 9s 8p 9s 5p 8p", "7z 7z")
	as, ss := actors(accepting(ActPon), nil, nil, nil)
	_, trace := run(t, tb, as)

	p := indexOf(trace, 0, "ev:call:pon")
	if p < 0 {
		t.Fatalf("no pon: %v", trace)
	}
	d := indexOf(trace, p, "ev:discard")
	if d < 0 || drawnBetween(trace, p, d) {
		t.Fatalf("trace = %v", trace)
	}
	reqs := ss[mahjong.SeatEast].requestsOf(ActDiscard)
	if len(reqs) < 2 {
		t.Fatalf("east discard requests = %d, want at least 2", len(reqs))
	}
	after := reqs[1]
	if after.View.Turn != mahjong.SeatEast || after.View.Drawn != mahjong.NoTile || len(after.Indices) != 11 {
		t.Fatalf("discard after pon = %+v", after)
	}
}

func TestChiDiscardsWithoutDraw(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"12s 789p 46p 1z 3z 222z 4z",
		"555s 666s 777s 888s 9s",
		"2345678p 234567m",
	}, "3s 1p 1p 6z", "")
	as, ss := actors(nil, accepting(ActChi), nil, nil)
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	c := indexOf(trace, 0, "ev:call:chi")
	if c < 0 {
		t.Fatalf("no chi: %v", trace)
	}
	d := indexOf(trace, c, "ev:discard")
	if d < 0 || drawnBetween(trace, c, d) {
		t.Fatalf("trace = %v", trace)
	}
	reqs := ss[mahjong.SeatSouth].requestsOf(ActDiscard)
	if len(reqs) == 0 || reqs[0].View.Drawn != mahjong.NoTile || len(reqs[0].Indices) != 11 {
		t.Fatalf("south discard after chi = %+v", reqs)
	}
	for _, ev := range ss[0].events {
		if ev.Kind == EventDiscard && ev.Seat == mahjong.SeatSouth {
			if ev.Tile != mahjong.MustParseTiles("4z")[0] || ev.Tsumogiri {
				t.Fatalf("south discard = %+v, want 4z from hand", ev)
			}
			break
		}
	}
	assertSingleEnd(t, ss)
}

func TestFourKansAcrossSeatsAbort(t *testing.T) {
	// East kans 1m 2m 3m off its draws, then throws the 7z replacement
	// into south's 777z.
	tb := board(t, [4]string{
		"1111m 2222m 3333m 4m",
		"777z 9m 159p 159s 123z",
		"4m 6m 8m 2p 4p 6p 2s 4s 6s 8s 4z 4z 6z",
		"5m 7m 9m 3p 7p 3s 7s 9s 1z 1z 2z 2z 3z",
	}, "9p 6m 6m 7p 7p 8s 8s", "5z 6z 7z 8p")
	as, ss := actors(accepting(ActClosedKan), accepting(ActOpenKan), nil, nil)
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeFourKans || !out.Kind.IsAbort() {
		t.Fatalf("outcome = %s, want four_kans", out.Kind)
	}
	var kans []string
	for _, ev := range ss[0].events {
		if ev.Kind == EventCall {
			kans = append(kans, string(ev.Meld.Kind)+"@"+ev.Seat.String())
		}
	}
	if len(kans) != 4 || !strings.HasPrefix(kans[3], "open_kan@") {
		t.Fatalf("kan events = %v", kans)
	}
	end := indexOf(trace, 0, "ROUND_END")
	if end < 1 || trace[end-1] != "CHECK_EXHAUSTION" {
		t.Fatalf("trace = %v", trace)
	}
	// South still discarded its replacement before the abort.
	if o := indexOf(trace, 0, "ev:call:open_kan"); o < 0 || indexOf(trace, o, "ev:discard") < 0 {
		t.Fatalf("no discard after the fourth kan: %v", trace)
	}
	assertSingleEnd(t, ss)
}

func TestFourKansBySeatPlaysOn(t *testing.T) {
	tb := board(t, [4]string{
		"1111m 2222m 3333m 4m",
		"777z 9m 159p 159s 123z",
		"5m 6m 8m 2p 4p 6p 2s 4s 6s 8s 4z 4z 6z",
		"5m 7m 9m 3p 7p 3s 7s 9s 1z 1z 2z 2z 3z",
	}, "9p 6m 6m 7p 7p 8s 8s", "4m 4m 4m 8p")
	as, ss := actors(accepting(ActClosedKan), nil, nil, nil)
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeExhausted {
		t.Fatalf("outcome = %s, want exhausted", out.Kind)
	}
	if n := tb.KanCount(); n != 4 {
		t.Fatalf("kans = %d, want 4", n)
	}
	for _, ev := range ss[0].events {
		if ev.Kind == EventCall && ev.Seat != mahjong.SeatEast {
			t.Fatalf("call by %s, want east only", ev.Seat)
		}
	}
	last := 0
	for i, e := range trace {
		if e == "ev:call:closed_kan" {
			last = i
		}
	}
	if indexOf(trace, last, "DRAW") < 0 {
		t.Fatalf("play stopped after the fourth kan: %v", trace)
	}
	assertSingleEnd(t, ss)
}

func TestFourWindsAborts(t *testing.T) {
	tb := board(t, [4]string{
		"123m 456m 789m 123p 5p",
		"111s 222s 333s 444s 5s",
		"555s 666s 777s 888s 9s",
		"2345678p 234567m",
	}, "1z 1z 1z 1z 9p", "")
	as, ss := actors()
	out, trace := run(t, tb, as)

	if out.Kind != OutcomeFourWinds || !out.Kind.IsAbort() {
		t.Fatalf("outcome = %s, want four_winds", out.Kind)
	}
	if n := countEvents(ss[0].events, EventDiscard); n != 4 {
		t.Fatalf("discards = %d, want 4", n)
	}
	end := indexOf(trace, 0, "ROUND_END")
	if end < 1 || trace[end-1] != "CHECK_EXHAUSTION" {
		t.Fatalf("trace = %v", trace)
	}
	if tb.WallRemaining() != 1 {
		t.Fatalf("wall = %d, want the fifth tile undrawn", tb.WallRemaining())
	}
	assertSingleEnd(t, ss)
}
