package wsmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Conns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_conns",
		Help: "Live connections in the registry",
	}, []string{"role"})
	ConnOpenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_conn_open_total",
		Help: "Total websocket connections accepted",
	}, []string{"role"})
	ConnCloseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_conn_close_total",
		Help: "Total websocket connections closed, partitioned by reason",
	}, []string{"role", "reason"})

	MsgsOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_msgs_out_total",
		Help: "Total events delivered (logical messages, not frames)",
	}, []string{"role"})
	BytesOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_bytes_out_total",
		Help: "Total websocket bytes delivered",
	}, []string{"role"})
	AttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_delivery_attempts_total",
		Help: "Delivery attempts partitioned by result",
	}, []string{"role", "result"}) // ok/error/timeout
	PrunedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_pruned_total",
		Help: "Connections dropped after exhausting delivery retries",
	}, []string{"role"})
	InboundDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_inbound_dropped_total",
		Help: "Inbound client messages ignored",
	}, []string{"role", "why"})

	PingSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_ping_sent_total",
		Help: "Total keepalive pings sent",
	})
	PongRecvTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_pong_recv_total",
		Help: "Total keepalive pongs received",
	})

	DeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ws_delivery_duration_seconds",
		Help:    "Duration of one delivery including retries",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms -> ~4s
	}, []string{"role"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_publish_queue_depth",
		Help: "Events waiting in the publisher queue",
	})
)

func OnOpen(role string) {
	ConnOpenTotal.WithLabelValues(role).Inc()
}

func OnClose(role, reason string) {
	ConnCloseTotal.WithLabelValues(role, reason).Inc()
}

func SetConns(role string, n int) {
	Conns.WithLabelValues(role).Set(float64(n))
}

func ObserveAttempt(role, result string) {
	AttemptsTotal.WithLabelValues(role, result).Inc()
}

func ObserveDelivery(role string, bytes int, dur time.Duration, ok bool) {
	DeliveryDuration.WithLabelValues(role).Observe(dur.Seconds())
	if ok {
		MsgsOutTotal.WithLabelValues(role).Inc()
		BytesOutTotal.WithLabelValues(role).Add(float64(bytes))
		return
	}
	PrunedTotal.WithLabelValues(role).Inc()
}
