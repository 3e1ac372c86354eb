// Package ws serves remote seats over a websocket: the seat feed flows out as
// stream messages and actions flow back in.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/agentgateway"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 << 10
)

type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	tableID string
	seat    string
}

func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

type Server struct {
	coord    *agentgateway.Coordinator
	upgrader websocket.Upgrader
}

func NewServer(coord *agentgateway.Coordinator) *Server {
	return &Server{
		coord:    coord,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// HandleSeat attaches a connection to /ws/tables/{table_id}/seats/{seat}.
// The last_event_id query parameter resumes the feed.
func (s *Server) HandleSeat(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "table_id")
	seat := chi.URLParam(r, "seat")
	buf, err := s.coord.SeatBuffer(tableID, seat)
	if err != nil {
		status, code := agentgateway.MapError(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(agentgateway.ErrorResponse{Error: code})
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxFrameSize)
	c := &Client{
		conn:    conn,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		tableID: tableID,
		seat:    seat,
	}
	connectionsOpened()
	defer connectionsClosed()

	c.enqueue(mustJSON(Hello{Type: TypeHello, ProtocolVersion: ProtocolVersion, TableID: tableID, Seat: seat}))
	go s.writeLoop(c)
	go s.pump(c, buf, r.URL.Query().Get("last_event_id"))
	s.readLoop(r.Context(), c)
}

// pump forwards the seat feed until the table closes or the client leaves.
func (s *Server) pump(c *Client, buf *agentgateway.EventBuffer, lastID string) {
	replay, ch := buf.Follow(lastID)
	defer buf.Unsubscribe(ch)
	sent := lastID
	for _, ev := range replay {
		if !c.enqueue(streamMessage(ev)) {
			return
		}
		sent = ev.EventID
	}
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-ch:
			if !ok {
				// nil asks the writer to close once the queue drains.
				c.enqueue(nil)
				return
			}
			if !agentgateway.EventAfter(ev.EventID, sent) {
				continue
			}
			if !c.enqueue(streamMessage(ev)) {
				return
			}
			sent = ev.EventID
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *Client) {
	defer c.close()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			c.enqueue(mustJSON(ErrorMessage{Type: TypeError, ProtocolVersion: ProtocolVersion, Error: "invalid_json"}))
			continue
		}
		switch base.Type {
		case TypePing:
			c.enqueue(mustJSON(Pong{Type: TypePong, ProtocolVersion: ProtocolVersion, TimestampMS: time.Now().UnixMilli()}))
		case TypeAction:
			var action ActionMessage
			if err := json.Unmarshal(msg, &action); err != nil {
				c.enqueue(mustJSON(ActionResult{Type: TypeActionResult, ProtocolVersion: ProtocolVersion, Error: "invalid_json"}))
				continue
			}
			c.enqueue(mustJSON(s.submit(ctx, c, action)))
		default:
			c.enqueue(mustJSON(ErrorMessage{Type: TypeError, ProtocolVersion: ProtocolVersion, Error: "unknown_type"}))
		}
	}
}

func (s *Server) submit(ctx context.Context, c *Client, action ActionMessage) ActionResult {
	res := ActionResult{Type: TypeActionResult, ProtocolVersion: ProtocolVersion, RequestID: action.RequestID}
	if _, err := s.coord.SubmitAction(ctx, c.tableID, c.seat, action.request()); err != nil {
		_, code := agentgateway.MapError(err)
		res.Error = code
		log.Debug().Err(err).Str("table_id", c.tableID).Str("seat", c.seat).Msg("ws action rejected")
		return res
	}
	res.Ok = true
	return res
}

func (s *Server) writeLoop(c *Client) {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if msg == nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "table_closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func streamMessage(ev agentgateway.StreamEvent) []byte {
	return mustJSON(StreamMessage{Type: TypeStream, ProtocolVersion: ProtocolVersion, Event: ev})
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("ws encode")
		return []byte(`{"type":"error","protocol_version":"` + ProtocolVersion + `","error":"encode_failed"}`)
	}
	return b
}
