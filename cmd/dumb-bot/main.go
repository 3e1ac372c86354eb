package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/config"
	"kyoku-table/internal/logging"
)

// envelope is the subset of a server frame the bot looks at.
type envelope struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	Ok    bool   `json:"ok"`
	Event struct {
		EventID string          `json:"event_id"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
	} `json:"event"`
}

type offer struct {
	Kind    string `json:"kind"`
	Indices []int  `json:"indices"`
}

type action struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Index     int    `json:"index"`
}

var callKinds = map[string]bool{"ron": true, "open_kan": true, "pon": true, "chi": true}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	endpoint, err := seatURL(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad ws url")
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", endpoint).Msg("dial failed")
	}
	defer conn.Close()
	log.Info().Str("url", endpoint).Msg("seat connected")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Info().Msg("table closed")
				return
			}
			log.Warn().Err(err).Msg("read failed")
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case "error":
			log.Warn().Str("error", env.Error).Msg("server error")
			continue
		case "action_result":
			if !env.Ok {
				log.Debug().Str("error", env.Error).Msg("action rejected")
			}
			continue
		case "stream":
		default:
			continue
		}
		if env.Event.Event != "request" {
			continue
		}
		var req offer
		if err := json.Unmarshal(env.Event.Data, &req); err != nil {
			continue
		}
		act, ok := decide(req)
		if !ok {
			continue
		}
		act.RequestID = env.Event.EventID
		payload, _ := json.Marshal(act)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn().Err(err).Msg("write failed")
			return
		}
	}
}

// decide discards the newest tile and passes every call.
func decide(req offer) (action, bool) {
	switch {
	case req.Kind == "discard" && len(req.Indices) > 0:
		return action{Type: "action", Kind: "discard", Index: req.Indices[len(req.Indices)-1]}, true
	case callKinds[req.Kind]:
		return action{Type: "action", Kind: "pass"}, true
	}
	return action{}, false
}

func seatURL(cfg config.BotConfig) (string, error) {
	base, err := url.Parse(strings.TrimRight(cfg.WSURL, "/"))
	if err != nil {
		return "", err
	}
	if base.Scheme != "ws" && base.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	return base.JoinPath(cfg.TableID, "seats", cfg.Seat).String(), nil
}
