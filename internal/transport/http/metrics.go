package httptransport

import "expvar"

var (
	replayQueryTotal       = expvar.NewInt("replay_query_total")
	replayQueryErrorsTotal = expvar.NewInt("replay_query_errors_total")
	replayQueryLastMS      = expvar.NewInt("replay_query_last_ms")
)
