package agentgateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"kyoku-table/internal/kyoku"
)

type parsedSSE struct {
	ID    string
	Event string
	Data  string
}

func readEventWithTimeout(t *testing.T, rd *bufio.Reader, timeout time.Duration) parsedSSE {
	t.Helper()
	ch := make(chan parsedSSE, 1)
	errCh := make(chan error, 1)
	go func() {
		ev, err := readEvent(rd)
		if err != nil {
			errCh <- err
			return
		}
		ch <- ev
	}()
	select {
	case ev := <-ch:
		return ev
	case err := <-errCh:
		t.Fatalf("read event: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for sse event")
	}
	return parsedSSE{}
}

func readEvent(rd *bufio.Reader) (parsedSSE, error) {
	ev := parsedSSE{}
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return ev, nil
		}
		if strings.HasPrefix(line, "id: ") {
			ev.ID = strings.TrimPrefix(line, "id: ")
		}
		if strings.HasPrefix(line, "event: ") {
			ev.Event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func testRouter(coord *Coordinator) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/api/tables", CreateTableHandler(coord))
	router.Get("/api/tables", ListTablesHandler(coord))
	router.Get("/api/tables/{table_id}", TableHandler(coord))
	router.Get("/api/tables/{table_id}/events", PublicEventsSSEHandler(coord))
	router.Get("/api/tables/{table_id}/seats/{seat}/events", EventsSSEHandler(coord))
	router.Get("/api/tables/{table_id}/seats/{seat}/state", StateHandler(coord))
	router.Post("/api/tables/{table_id}/seats/{seat}/actions", ActionsHandler(coord))
	return router
}

func createViaHTTP(t *testing.T, router http.Handler, body string) CreateTableResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/tables", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create table: %d %s", w.Code, w.Body.String())
	}
	var res CreateTableResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

func TestTablesHandlers(t *testing.T) {
	coord := newTestCoordinator(t, Options{})
	router := testRouter(coord)

	res := createViaHTTP(t, router, "")
	if res.Seats[0].Mode != SeatModeRemote || res.Seats[0].ActionURL == "" {
		t.Fatalf("seats = %+v", res.Seats)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/"+res.TableID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get table: %d %s", w.Code, w.Body.String())
	}
	var sum TableSummary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.TableID != res.TableID || sum.Status != "running" {
		t.Fatalf("summary = %+v", sum)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "table_not_found") {
		t.Fatalf("missing table: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tables", strings.NewReader(`{"seats":["ai"]}`)))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_seats") {
		t.Fatalf("bad seats: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	var list struct {
		Items []TableSummary `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(list.Items))
	}
}

func TestActionsAndStateHandlers(t *testing.T) {
	coord := newTestCoordinator(t, Options{})
	router := testRouter(coord)
	res := createViaHTTP(t, router, `{"seats":["remote","ai","ai","ai"]}`)
	offer := waitOffer(t, coord, res.TableID, "east", kyoku.ActDiscard)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/"+res.TableID+"/seats/east/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("state: %d %s", w.Code, w.Body.String())
	}
	var st SeatState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Seat != "east" || st.View == nil || len(st.Pending) == 0 {
		t.Fatalf("state = %+v", st)
	}

	post := func(body ActionRequest) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, res.Seats[0].ActionURL, bytes.NewReader(b)))
		return w
	}
	if w := post(ActionRequest{Kind: "chi", Indices: []int{0, 1}}); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "not_offered") {
		t.Fatalf("chi: %d %s", w.Code, w.Body.String())
	}
	if w := post(ActionRequest{Kind: "kan"}); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_action") {
		t.Fatalf("unknown kind: %d %s", w.Code, w.Body.String())
	}
	w = post(ActionRequest{RequestID: "h1", Kind: "discard", Index: offer.Indices[0]})
	if w.Code != http.StatusOK {
		t.Fatalf("discard: %d %s", w.Code, w.Body.String())
	}
	var ar ActionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &ar)
	if !ar.Accepted || ar.Kind != "discard" || ar.RequestID != "h1" {
		t.Fatalf("response = %+v", ar)
	}

	badJSON := httptest.NewRecorder()
	router.ServeHTTP(badJSON, httptest.NewRequest(http.MethodPost, res.Seats[0].ActionURL, strings.NewReader("{")))
	if badJSON.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", badJSON.Code)
	}
}

func TestEventsSSEReplayOrderAndLastEventID(t *testing.T) {
	coord := newTestCoordinator(t, Options{})
	router := testRouter(coord)
	srv := httptest.NewServer(router)
	defer srv.Close()
	res := createViaHTTP(t, router, "")
	waitOffer(t, coord, res.TableID, "east", kyoku.ActDiscard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+res.Seats[0].StreamURL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open sse: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-transform") {
		t.Fatalf("cache control = %q", cc)
	}
	rd := bufio.NewReader(resp.Body)
	ev1 := readEventWithTimeout(t, rd, time.Second)
	if ev1.Event != "request" {
		t.Fatalf("first seat event = %s, want request", ev1.Event)
	}
	var first StreamEvent
	if err := json.Unmarshal([]byte(ev1.Data), &first); err != nil || first.TableID != res.TableID {
		t.Fatalf("data = %s (%v)", ev1.Data, err)
	}

	req2, _ := http.NewRequest(http.MethodGet, srv.URL+res.Seats[0].StreamURL, nil)
	req2.Header.Set("Last-Event-ID", ev1.ID)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("open sse replay: %v", err)
	}
	defer resp2.Body.Close()
	b, _ := json.Marshal(ActionRequest{Kind: "discard", Index: 0})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, res.Seats[0].ActionURL, bytes.NewReader(b)))
	if w.Code != http.StatusOK {
		t.Fatalf("post action failed: %d %s", w.Code, w.Body.String())
	}
	rd2 := bufio.NewReader(resp2.Body)
	ev := readEventWithTimeout(t, rd2, time.Second)
	idNew, _ := strconv.Atoi(ev.ID)
	idOld, _ := strconv.Atoi(ev1.ID)
	if idNew <= idOld {
		t.Fatalf("expected replay event id > %s, got %s", ev1.ID, ev.ID)
	}
}

func TestPublicSSEEndsWithTableClosed(t *testing.T) {
	prev := ssePingInterval
	ssePingInterval = 20 * time.Millisecond
	defer func() { ssePingInterval = prev }()

	coord := newTestCoordinator(t, Options{})
	router := testRouter(coord)
	srv := httptest.NewServer(router)
	defer srv.Close()
	res := createViaHTTP(t, router, "")

	resp, err := http.Get(srv.URL + res.StreamURL)
	if err != nil {
		t.Fatalf("open sse: %v", err)
	}
	defer resp.Body.Close()
	rd := bufio.NewReader(resp.Body)
	var sawPing bool
	for i := 0; i < 10 && !sawPing; i++ {
		sawPing = readEventWithTimeout(t, rd, time.Second).Event == "ping"
	}
	if !sawPing {
		t.Fatal("expected ping event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := coord.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	var sawClosed bool
	for i := 0; i < 10 && !sawClosed; i++ {
		ev := readEventWithTimeout(t, rd, time.Second)
		if ev.Event == "request" {
			t.Fatal("public stream leaked a request")
		}
		sawClosed = ev.Event == "table_closed"
	}
	if !sawClosed {
		t.Fatal("expected table_closed event")
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errTableNotFound, http.StatusNotFound, "table_not_found"},
		{errSeatNotRemote, http.StatusConflict, "seat_not_remote"},
		{errTooManyTables, http.StatusServiceUnavailable, "too_many_tables"},
		{context.Canceled, http.StatusServiceUnavailable, "request_canceled"},
		{strconv.ErrSyntax, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := MapError(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("MapError(%v) = %d %s, want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}
