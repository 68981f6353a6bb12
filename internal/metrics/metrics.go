package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collabcode_active_connections",
		Help: "Number of live websocket sessions across all rooms.",
	})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabcode_events_broadcast_total",
		Help: "Events fanned out to rooms, by event type.",
	}, []string{"type"})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabcode_ai_requests_total",
		Help: "Assistant generation calls, by outcome.",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
