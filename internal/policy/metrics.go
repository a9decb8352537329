package policy

import "github.com/prometheus/client_golang/prometheus"

var decisionCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "policy",
		Name:      "decisions_total",
		Help:      "Sponsorship decisions by outcome and denial reason",
	},
	[]string{"outcome", "reason"},
)

func init() {
	prometheus.MustRegister(decisionCounter)
}
