package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitBlockTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Name:      "ratelimit_block_total",
			Help:      "Total number of rate limit blocks.",
		},
		[]string{"service", "resource", "reason"},
	)

	CBRejectTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Name:      "circuitbreaker_reject_total",
			Help:      "Total number of circuit breaker rejections.",
		},
		[]string{"service", "target", "reason"},
	)

	CBState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coffeeshop",
			Name:      "circuitbreaker_state",
			Help:      "Circuit breaker state (0/1).",
		},
		[]string{"service", "target", "state"}, // state: closed/open/half-open
	)

	registerOnce sync.Once
)

// MustRegister 可重复调用
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RateLimitBlockTotal, CBRejectTotal, CBState)
	})
}
