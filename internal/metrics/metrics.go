package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docmate"

// Pipeline Prometheus metrics.
var (
	RemoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote model calls by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: embed/generate, status: success/error
	)

	RemoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Remote model call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	EmbeddingRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_retries_total",
			Help:      "Embedding attempts that failed and were retried",
		},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_fallbacks_total",
			Help:      "Inputs replaced by a zero vector after exhausting retries",
		},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "User inputs processed, by resolved intent",
		},
		[]string{"intent"},
	)

	RequestErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Questions answered with an error message",
		},
	)

	RetrievedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_chunks",
			Help:      "Chunks left after the distance filter",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
	)
)

var registerOnce sync.Once

// Register adds all pipeline metrics to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RemoteCallsTotal,
			RemoteCallDuration,
			EmbeddingRetriesTotal,
			EmbeddingFallbacksTotal,
			EmbeddingCacheTotal,
			RequestsTotal,
			RequestErrorsTotal,
			RetrievedChunks,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// ObserveCall records the outcome and duration of one remote call.
func ObserveCall(kind string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RemoteCallsTotal.WithLabelValues(kind, status).Inc()
	RemoteCallDuration.WithLabelValues(kind).Observe(seconds)
}
