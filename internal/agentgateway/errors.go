package agentgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kyoku-table/internal/actor"
)

var (
	errTableNotFound = errors.New("table_not_found")
	errSeatNotFound  = errors.New("seat_not_found")
	errSeatNotRemote = errors.New("seat_not_remote")
	errInvalidSeats  = errors.New("invalid_seats")
	errInvalidDealer = errors.New("invalid_dealer")
	errInvalidAction = errors.New("invalid_action")
	errRoundOver     = errors.New("round_over")
	errTooManyTables = errors.New("too_many_tables")
	errShuttingDown  = errors.New("shutting_down")
)

// MapError turns a coordinator error into an HTTP status and a wire code.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, errTableNotFound):
		return http.StatusNotFound, "table_not_found"
	case errors.Is(err, errSeatNotFound):
		return http.StatusNotFound, "seat_not_found"
	case errors.Is(err, errSeatNotRemote):
		return http.StatusConflict, "seat_not_remote"
	case errors.Is(err, errInvalidSeats):
		return http.StatusBadRequest, "invalid_seats"
	case errors.Is(err, errInvalidDealer):
		return http.StatusBadRequest, "invalid_dealer"
	case errors.Is(err, errInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, actor.ErrNotOffered):
		return http.StatusBadRequest, "not_offered"
	case errors.Is(err, actor.ErrInvalidChoice):
		return http.StatusBadRequest, "invalid_choice"
	case errors.Is(err, errRoundOver):
		return http.StatusConflict, "round_over"
	case errors.Is(err, errTooManyTables):
		return http.StatusServiceUnavailable, "too_many_tables"
	case errors.Is(err, errShuttingDown):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
