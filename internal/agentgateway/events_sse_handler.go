package agentgateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams the private feed of one remote seat.
func EventsSSEHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		buf, err := coord.SeatBuffer(tableID, chi.URLParam(r, "seat"))
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		serveSSE(w, r, tableID, buf)
	}
}

// PublicEventsSSEHandler streams the spectator feed of a table.
func PublicEventsSSEHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		buf, err := coord.PublicBuffer(tableID)
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		serveSSE(w, r, tableID, buf)
	}
}

func serveSSE(w http.ResponseWriter, r *http.Request, tableID string, buf *EventBuffer) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "stream_not_supported")
		return
	}
	metricSSEConnectionsTotal.Add(1)
	metricSSEConnectionsActive.Add(1)
	defer metricSSEConnectionsActive.Add(-1)

	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("last_event_id")
	}
	replay, ch := buf.Follow(lastID)
	defer buf.Unsubscribe(ch)
	sent := lastID
	for _, ev := range replay {
		if err := WriteSSE(w, ev); err != nil {
			return
		}
		sent = ev.EventID
	}
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if !EventAfter(ev.EventID, sent) {
				continue
			}
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			sent = ev.EventID
			flusher.Flush()
		case <-ticker.C:
			ping := StreamEvent{
				Event:    "ping",
				TableID:  tableID,
				ServerTS: time.Now().UnixMilli(),
				Data:     map[string]any{"ts": time.Now().UnixMilli()},
			}
			if err := WriteSSE(w, ping); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
