// Package metrics exposes Prometheus counters for ingestion, chat and booking.
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docrag"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	documentsIngested *prometheus.CounterVec
	chunksProduced    *prometheus.CounterVec
	ingestFailures    *prometheus.CounterVec
	chunkLength       *prometheus.HistogramVec
	chatRequests      *prometheus.CounterVec
	bookings          *prometheus.CounterVec
}

// New creates the collectors and registers them with Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documentsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents accepted and indexed, by chunking strategy.",
		}, []string{"strategy"}),
		chunksProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_produced_total",
			Help:      "Chunks produced by ingestion, by chunking strategy.",
		}, []string{"strategy"}),
		ingestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Rejected or failed uploads, by reason.",
		}, []string{"reason"}),
		chunkLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_length_chars",
			Help:      "Chunk length in characters.",
			Buckets:   []float64{50, 100, 200, 300, 400, 500, 600, 800, 1000},
		}, []string{"strategy"}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests handled, by outcome.",
		}, []string{"outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documentsIngested,
		m.chunksProduced,
		m.ingestFailures,
		m.chunkLength,
		m.chatRequests,
		m.bookings,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIngest records a successful ingestion and its chunk lengths.
func (m *Metrics) ObserveIngest(strategy string, chunkLengths []int) {
	if m == nil {
		return
	}
	m.documentsIngested.WithLabelValues(strategy).Inc()
	m.chunksProduced.WithLabelValues(strategy).Add(float64(len(chunkLengths)))
	h := m.chunkLength.WithLabelValues(strategy)
	for _, n := range chunkLengths {
		h.Observe(float64(n))
	}
}

// IngestFailed records a rejected or failed upload.
func (m *Metrics) IngestFailed(reason string) {
	if m == nil {
		return
	}
	m.ingestFailures.WithLabelValues(reason).Inc()
}

// ChatHandled records a chat request outcome ("ok", "invalid", "error").
func (m *Metrics) ChatHandled(outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
}

// BookingProcessed records a booking attempt.
func (m *Metrics) BookingProcessed(confirmed bool) {
	if m == nil {
		return
	}
	result := "incomplete"
	if confirmed {
		result = "confirmed"
	}
	m.bookings.WithLabelValues(result).Inc()
}
