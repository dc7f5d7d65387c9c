// README: Prometheus instrumentation for the match engine.
package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeMatched   = "matched"
	outcomeEmpty     = "empty"
	outcomeDegraded  = "degraded"
	outcomeRetrieval = "retrieval_error"
	outcomeInvalid   = "invalid"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unirides",
		Subsystem: "matching",
		Name:      "searches_total",
		Help:      "Advanced ride searches by outcome.",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "unirides",
		Subsystem: "matching",
		Name:      "search_duration_seconds",
		Help:      "End-to-end latency of advanced ride searches.",
		Buckets:   prometheus.DefBuckets,
	})

	candidatesScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "unirides",
		Subsystem: "matching",
		Name:      "candidates_scored_total",
		Help:      "Candidate rides passed through the scoring function.",
	})

	candidatesDisqualified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "unirides",
		Subsystem: "matching",
		Name:      "candidates_disqualified_total",
		Help:      "Candidates removed by a hard constraint.",
	})

	signalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unirides",
		Subsystem: "matching",
		Name:      "signal_failures_total",
		Help:      "Signal collectors that failed or timed out.",
	}, []string{"collector"})
)
