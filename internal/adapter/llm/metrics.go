package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gen-AI client instruments. Constructed once at the
// composition root and shared by reference; never package-global.
type Metrics struct {
	// TokenUsage records tokens per call, labeled input/output.
	TokenUsage *prometheus.HistogramVec
	// OperationDuration records wall-clock duration of single attempts.
	OperationDuration *prometheus.HistogramVec
	// Cost accumulates estimated USD cost of successful calls.
	Cost *prometheus.CounterVec
	// Retries counts re-attempts after the first failure of a call.
	Retries *prometheus.CounterVec
	// Fallbacks counts escalations from primary to fallback provider.
	Fallbacks prometheus.Counter
	// Errors counts failed attempts by classified category.
	Errors *prometheus.CounterVec
}

// NewMetrics registers the gen-AI client instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokenUsage: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gen_ai_client_token_usage",
			Help:    "Number of tokens used per LLM call",
			Buckets: prometheus.ExponentialBuckets(16, 2, 12),
		}, []string{"provider", "model", "token_type"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gen_ai_client_operation_duration_seconds",
			Help:    "Duration of LLM operations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"provider", "model"}),
		Cost: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gen_ai_client_cost_usd_total",
			Help: "Estimated cost of LLM operations in USD",
		}, []string{"provider", "model"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gen_ai_client_retries_total",
			Help: "Number of LLM call retries",
		}, []string{"provider", "model"}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "gen_ai_client_fallbacks_total",
			Help: "Number of LLM fallback activations",
		}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gen_ai_client_errors_total",
			Help: "Number of LLM call errors by category",
		}, []string{"provider", "model", "category"}),
	}
}
