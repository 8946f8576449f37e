package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procsearch",
			Name:      "search_requests_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"status"}, // "ok" / "empty" / "error"
	)

	SearchStoreDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "procsearch",
			Name:      "search_store_duration_seconds",
			Help:      "Procurement store call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchResultCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "procsearch",
			Name:      "search_result_count",
			Help:      "Number of records returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStoreDuration)
	prometheus.MustRegister(SearchResultCount)
	searchMetricsRegistered = true
}
