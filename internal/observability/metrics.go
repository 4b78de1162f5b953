package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "editorctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	registryConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "editorctl",
			Subsystem: "registry",
			Name:      "connections",
			Help:      "Registered editor connections by status.",
		},
		[]string{"status"},
	)
	peerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorctl",
			Subsystem: "peer",
			Name:      "requests_total",
			Help:      "Commands issued to editor peers.",
		},
		[]string{"command", "outcome"},
	)
	peerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "editorctl",
			Subsystem: "peer",
			Name:      "request_duration_seconds",
			Help:      "Editor peer command round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	transportReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "editorctl",
			Subsystem: "transport",
			Name:      "reconnects_total",
			Help:      "Transport reconnect attempts by endpoint.",
		},
		[]string{"endpoint"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			registryConnections, peerRequests, peerDuration,
			transportReconnects,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func SetConnectionCount(status string, n int) {
	RegisterMetrics()
	registryConnections.WithLabelValues(status).Set(float64(n))
}

func RecordPeerRequest(command, outcome string, duration time.Duration) {
	RegisterMetrics()
	peerRequests.WithLabelValues(command, outcome).Inc()
	peerDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordReconnectAttempt(endpoint string) {
	RegisterMetrics()
	transportReconnects.WithLabelValues(endpoint).Inc()
}
