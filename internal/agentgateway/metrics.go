package agentgateway

import "expvar"

var (
	metricTableCreateTotal  = expvar.NewInt("table_create_total")
	metricTableCreateErrors = expvar.NewInt("table_create_errors_total")
	metricTablesActive      = expvar.NewInt("tables_active")

	metricRoundFinishedTotal = expvar.NewInt("round_finished_total")
	metricRoundFailedTotal   = expvar.NewInt("round_failed_total")
	metricRoundOutcomes      = expvar.NewMap("round_outcomes")

	metricActionSubmitTotal  = expvar.NewInt("action_submit_total")
	metricActionSubmitErrors = expvar.NewInt("action_submit_errors_total")
	metricSeatTimeoutsTotal  = expvar.NewInt("seat_timeouts_total")

	metricSSEConnectionsTotal  = expvar.NewInt("table_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("table_sse_connections_active")
)
