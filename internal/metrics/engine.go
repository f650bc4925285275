package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laborlens",
			Name:      "queries_total",
			Help:      "Total number of classified queries",
		},
		[]string{"tag", "handler"},
	)

	RetrievalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laborlens",
			Name:      "retrieval_failures_total",
			Help:      "Total number of failed retrievals",
		},
		[]string{"reason"},
	)

	GenerationBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "laborlens",
			Name:      "generation_build_duration_seconds",
			Help:      "Duration of one complete generation build",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	ActiveGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "laborlens",
			Name:      "active_generation",
			Help:      "Sequence number of the active generation",
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laborlens",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laborlens",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(RetrievalFailuresTotal)
	prometheus.MustRegister(GenerationBuildDuration)
	prometheus.MustRegister(ActiveGeneration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	engineMetricsRegistered = true
}
