package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and conversion service Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesight",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding service requests",
		},
		[]string{"task", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pagesight",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding service request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"task"},
	)

	EmbeddingBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagesight",
			Name:      "embedding_batch_size",
			Help:      "Number of images per embedding batch",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
	)

	ConversionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesight",
			Name:      "conversion_requests_total",
			Help:      "Total number of document conversion requests",
		},
		[]string{"route", "status"},
	)
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers embedding metrics. Must be called once from main.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingBatchSize)
	prometheus.MustRegister(ConversionRequestsTotal)
	embMetricsRegistered = true
}
