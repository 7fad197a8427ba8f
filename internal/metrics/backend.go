package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search backend Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clustersearch",
			Name:      "backend_requests_total",
			Help:      "Total number of search backend round trips",
		},
		[]string{"collection", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clustersearch",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend round trip duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collection"},
	)

	BackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clustersearch",
			Name:      "backend_errors_total",
			Help:      "Total search backend errors",
		},
		[]string{"collection", "error_type"}, // "unavailable" / "bad_query"
	)

	FanoutClusters = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clustersearch",
			Name:      "fanout_clusters",
			Help:      "Number of per-cluster queries issued by one page render",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"view"},
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers search backend metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendErrorsTotal)
	prometheus.MustRegister(FanoutClusters)
	backendMetricsRegistered = true
}
