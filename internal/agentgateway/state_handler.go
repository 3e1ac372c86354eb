package agentgateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func StateHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := coord.SeatState(chi.URLParam(r, "table_id"), chi.URLParam(r, "seat"))
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
