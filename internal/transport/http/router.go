package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"kyoku-table/internal/agentgateway"
	"kyoku-table/internal/config"
	"kyoku-table/internal/mcpserver"
	"kyoku-table/internal/store"
	"kyoku-table/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter mounts the table API, the seat streams, the MCP endpoint and the
// replay routes. st may be nil; replay routes then answer 503.
func NewRouter(st *store.Store, cfg config.ServerConfig, coord *agentgateway.Coordinator) *chi.Mux {
	mcpSrv := mcpserver.New(coord)
	wsSrv := ws.NewServer(coord)
	rounds := NewRoundHandlers(st)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", rounds.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	r.With(APILogMiddleware()).Get("/ws/tables/{table_id}/seats/{seat}", wsSrv.HandleSeat)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/tables", agentgateway.CreateTableHandler(coord))
		r.Get("/tables", agentgateway.ListTablesHandler(coord))
		r.Get("/tables/{table_id}", agentgateway.TableHandler(coord))
		r.Get("/tables/{table_id}/events", agentgateway.PublicEventsSSEHandler(coord))
		r.Get("/tables/{table_id}/rounds", rounds.TableRounds())
		r.Get("/tables/{table_id}/seats/{seat}/events", agentgateway.EventsSSEHandler(coord))
		r.Get("/tables/{table_id}/seats/{seat}/state", agentgateway.StateHandler(coord))
		r.Post("/tables/{table_id}/seats/{seat}/actions", agentgateway.ActionsHandler(coord))

		r.Get("/rounds/{round_id}", rounds.Round())
		r.Get("/rounds/{round_id}/events", rounds.RoundEvents())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
