package agentgateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func ActionsHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID := chi.URLParam(r, "table_id")
		seat := chi.URLParam(r, "seat")
		var req ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := coord.SubmitAction(r.Context(), tableID, seat, req)
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
