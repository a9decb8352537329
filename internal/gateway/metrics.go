package gateway

import "github.com/prometheus/client_golang/prometheus"

var requestCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "JSON-RPC requests by gateway variant, method and outcome",
	},
	[]string{"variant", "method", "outcome"},
)

func init() {
	prometheus.MustRegister(requestCounter)
}
