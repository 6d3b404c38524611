package metrics

import "github.com/prometheus/client_golang/prometheus"

// Personalization engine metrics.
var (
	FeedSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdex",
			Name:      "feed_search_duration_seconds",
			Help:      "Preference search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"}, // "primary" / "fallback"
	)

	FeedFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "feed_fallback_total",
			Help:      "Feed searches that fell back to the generic query",
		},
	)

	InteractionsTrackedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdex",
			Name:      "interactions_tracked_total",
			Help:      "Interactions recorded, by action",
		},
		[]string{"action"},
	)

	LearnerAnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsdex",
			Name:      "learner_analysis_duration_seconds",
			Help:      "Interaction analysis duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers personalization metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(FeedSearchDuration)
	prometheus.MustRegister(FeedFallbackTotal)
	prometheus.MustRegister(InteractionsTrackedTotal)
	prometheus.MustRegister(LearnerAnalysisDuration)
	engineMetricsRegistered = true
}
