package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapquest_ws_connections_active",
		Help: "Number of open WebSocket connections.",
	})

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapquest_ws_requests_total",
			Help: "Total number of WebSocket requests by operation and result.",
		},
		[]string{"op", "result"},
	)
)
