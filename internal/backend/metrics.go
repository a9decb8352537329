package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound calls to bundler, paymaster and gas-price services",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "method", "outcome"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

func observe(service, method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestDuration.WithLabelValues(service, method, outcome).Observe(time.Since(start).Seconds())
}
