package agentgateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func CreateTableHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := coord.CreateTable(r.Context(), req)
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func ListTablesHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": coord.ListTables()})
	}
}

func TableHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := coord.Table(chi.URLParam(r, "table_id"))
		if err != nil {
			status, code := MapError(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}
