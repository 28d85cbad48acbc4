// Package metrics exposes Prometheus instruments for the guidance pipeline.
// Instruments live on a private registry so tests and embedders are not
// affected by the global default registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// Registry holds every parable instrument.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	narrativeAttempts = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "parable_narrative_attempts",
		Help:    "Draft/check cycles used per narrative request.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	narrativeOutcomes = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "parable_narrative_outcomes_total",
		Help: "Terminal narrative outcomes by status.",
	}, []string{"status"})

	violations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "parable_violations_total",
		Help: "Fact checker violations by kind.",
	}, []string{"kind"})

	answerRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "parable_answer_requests_total",
		Help: "Answers produced, split by whether passages grounded them.",
	}, []string{"grounded"})

	retrievalDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "parable_retrieval_duration_seconds",
		Help:    "Time spent embedding the query and searching the index.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveOutcome records a terminal narrative outcome.
func ObserveOutcome(o domain.VerificationOutcome) {
	narrativeOutcomes.WithLabelValues(o.Status.String()).Inc()
	if o.Attempts > 0 {
		narrativeAttempts.Observe(float64(o.Attempts))
	}
}

// ObserveViolations counts violations by kind.
func ObserveViolations(vs []domain.Violation) {
	for i := range vs {
		violations.WithLabelValues(vs[i].Kind.String()).Inc()
	}
}

// ObserveAnswer records a produced answer.
func ObserveAnswer(a domain.AnswerCandidate) {
	answerRequests.WithLabelValues(strconv.FormatBool(a.Grounded)).Inc()
}

// ObserveRetrieval records retrieval latency in seconds.
func ObserveRetrieval(seconds float64) {
	retrievalDuration.Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
