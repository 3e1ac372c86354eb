package ws

import "expvar"

var (
	metricConnectionsTotal  = expvar.NewInt("seat_ws_connections_total")
	metricConnectionsActive = expvar.NewInt("seat_ws_connections_active")
)

func connectionsOpened() {
	metricConnectionsTotal.Add(1)
	metricConnectionsActive.Add(1)
}

func connectionsClosed() {
	metricConnectionsActive.Add(-1)
}
