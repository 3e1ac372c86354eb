package httptransport

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/store"
)

// RoundHandlers replay persisted rounds. They answer 503 when the server runs
// without a database.
type RoundHandlers struct {
	store *store.Store
}

func NewRoundHandlers(st *store.Store) *RoundHandlers {
	return &RoundHandlers{store: st}
}

func (h *RoundHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "disabled"})
			return
		}
		if err := h.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *RoundHandlers) Round() http.HandlerFunc {
	return h.replay(func(r *http.Request) (any, error) {
		return h.store.GetRound(r.Context(), chi.URLParam(r, "round_id"))
	})
}

func (h *RoundHandlers) RoundEvents() http.HandlerFunc {
	return h.replay(func(r *http.Request) (any, error) {
		roundID := chi.URLParam(r, "round_id")
		if _, err := h.store.GetRound(r.Context(), roundID); err != nil {
			return nil, err
		}
		limit, from := ParsePagination(r)
		items, err := h.store.ListRoundEvents(r.Context(), roundID, from, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"items": items, "limit": limit, "from_seq": from}, nil
	})
}

func (h *RoundHandlers) TableRounds() http.HandlerFunc {
	return h.replay(func(r *http.Request) (any, error) {
		limit, _ := ParsePagination(r)
		items, err := h.store.ListTableRounds(r.Context(), chi.URLParam(r, "table_id"), limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"items": items, "limit": limit}, nil
	})
}

func (h *RoundHandlers) replay(query func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "persistence_disabled")
			return
		}
		replayQueryTotal.Add(1)
		start := time.Now()
		resp, err := query(r)
		replayQueryLastMS.Set(time.Since(start).Milliseconds())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "round_not_found")
				return
			}
			replayQueryErrorsTotal.Add(1)
			log.Error().Err(err).Str("path", r.URL.Path).Msg("replay query failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
