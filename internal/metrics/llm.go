package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model-call Prometheus metrics, covering both the embedding and the
// chat-completion providers.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "model_requests_total",
			Help:      "Total number of model API requests",
		},
		[]string{"kind", "model", "status"}, // kind: "embedding" / "completion"
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdocs",
			Name:      "model_request_duration_seconds",
			Help:      "Model API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "model_tokens_total",
			Help:      "Total model tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "askdocs",
			Name:      "index_chunks",
			Help:      "Number of (chunk, vector) pairs in the index",
		},
	)
)

var llmMetricsRegistered bool

// RegisterModelMetrics registers model metrics. Must be called once from main.
func RegisterModelMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(IndexChunks)
	llmMetricsRegistered = true
}
