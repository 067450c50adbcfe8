package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagesight",
			Name:      "ingest_documents_total",
			Help:      "Total number of document ingestions by terminal state",
		},
		[]string{"mode", "status"}, // mode: sync/async, status: persisted/failed
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagesight",
			Name:      "ingest_duration_seconds",
			Help:      "Full ingestion pipeline duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	IngestPagesPerDocument = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pagesight",
			Name:      "ingest_pages_per_document",
			Help:      "Number of rasterized pages per ingested document",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	IngestQueueInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pagesight",
			Name:      "ingest_queue_in_flight",
			Help:      "Asynchronous ingestion tasks currently running",
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(IngestPagesPerDocument)
	prometheus.MustRegister(IngestQueueInFlight)
	ingestMetricsRegistered = true
}
