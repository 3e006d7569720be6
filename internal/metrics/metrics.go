// Package metrics registers the Prometheus instrumentation for the repository digest
// pipeline: extractor stage durations, processor truncation counts, and LLM gateway call
// counts/latencies. Grounded on kraklabs-cie's pkg/ingestion/metrics.go for the
// Counter/Histogram/Opts shape, adapted to a private registry (rather than the default
// global one) so the service can be instantiated more than once in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds every counter/histogram the pipeline records against, all registered on
// one private *prometheus.Registry handed out by Handler.
type Metrics struct {
	registry *prometheus.Registry

	ExtractorStageDuration *prometheus.HistogramVec
	ExtractorStageErrors   *prometheus.CounterVec

	ProcessorTruncations  *prometheus.CounterVec
	ProcessorBudgetErrors prometheus.Counter

	GatewayRequests *prometheus.CounterVec
	GatewayDuration prometheus.Histogram

	SummarizeRequests *prometheus.CounterVec
	SummarizeDuration prometheus.Histogram
}

// New constructs and registers every metric on a fresh private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ExtractorStageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repodigest_extractor_stage_duration_seconds",
			Help:    "Duration of each Repository Extractor stage.",
			Buckets: durationBuckets,
		}, []string{"stage"}),
		ExtractorStageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repodigest_extractor_stage_errors_total",
			Help: "Count of Repository Extractor stage failures, by stage.",
		}, []string{"stage"}),
		ProcessorTruncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repodigest_processor_truncations_total",
			Help: "Count of Context-Budget Processor truncation decisions, by section.",
		}, []string{"section"}),
		ProcessorBudgetErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repodigest_processor_budget_errors_total",
			Help: "Count of budget_error outcomes raised by the Context-Budget Processor.",
		}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repodigest_llm_gateway_requests_total",
			Help: "Count of LLM Gateway chat-completion requests, by outcome.",
		}, []string{"outcome"}),
		GatewayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "repodigest_llm_gateway_request_duration_seconds",
			Help:    "Duration of LLM Gateway chat-completion calls, including retries.",
			Buckets: durationBuckets,
		}),
		SummarizeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repodigest_summarize_requests_total",
			Help: "Count of /summarize requests, by outcome error kind (empty for success).",
		}, []string{"outcome"}),
		SummarizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "repodigest_summarize_duration_seconds",
			Help:    "End-to-end duration of the Summarization Orchestrator's pipeline.",
			Buckets: durationBuckets,
		}),
	}

	reg.MustRegister(
		m.ExtractorStageDuration, m.ExtractorStageErrors,
		m.ProcessorTruncations, m.ProcessorBudgetErrors,
		m.GatewayRequests, m.GatewayDuration,
		m.SummarizeRequests, m.SummarizeDuration,
	)
	return m
}

// Handler exposes the private registry on /metrics in the standard Prometheus exposition
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTruncationNotes increments ProcessorTruncations once per note, plus
// ProcessorBudgetErrors when budgetErrored is true.
func (m *Metrics) RecordTruncationNotes(sections []string, budgetErrored bool) {
	for _, s := range sections {
		m.ProcessorTruncations.WithLabelValues(s).Inc()
	}
	if budgetErrored {
		m.ProcessorBudgetErrors.Inc()
	}
}
