// Package metrics exposes prometheus counters for ingestion and chat turns.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeAnswer   = "answer"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Turns            *prometheus.CounterVec
	ToolCalls        *prometheus.CounterVec
	DocumentsIndexed prometheus.Counter
	ChunksIndexed    prometheus.Counter
	IngestFailures   prometheus.Counter
	RetrievalHits    prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zuri",
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zuri",
			Name:      "tool_calls_total",
			Help:      "Tool calls requested by the model.",
		}, []string{"tool"}),
		DocumentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zuri",
			Name:      "documents_indexed_total",
			Help:      "Documents written to the vector index.",
		}),
		ChunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zuri",
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the vector index.",
		}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zuri",
			Name:      "ingest_failures_total",
			Help:      "Failed ingestion attempts.",
		}),
		RetrievalHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zuri",
			Name:      "retrieval_results",
			Help:      "Passages returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}),
	}
	m.registry.MustRegister(
		m.Turns, m.ToolCalls, m.DocumentsIndexed, m.ChunksIndexed, m.IngestFailures, m.RetrievalHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Turn(outcome string) {
	if m != nil {
		m.Turns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ToolCall(tool string) {
	if m != nil {
		m.ToolCalls.WithLabelValues(tool).Inc()
	}
}

func (m *Metrics) Indexed(documents, chunks int) {
	if m != nil {
		m.DocumentsIndexed.Add(float64(documents))
		m.ChunksIndexed.Add(float64(chunks))
	}
}

func (m *Metrics) IngestFailed() {
	if m != nil {
		m.IngestFailures.Inc()
	}
}

func (m *Metrics) Retrieved(n int) {
	if m != nil {
		m.RetrievalHits.Observe(float64(n))
	}
}
