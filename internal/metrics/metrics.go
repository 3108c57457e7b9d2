package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "endpoint"},
	)

	// TranscriptStrategyOutcomes counts caption strategy results by
	// strategy name and outcome (hit, empty, error, skipped).
	TranscriptStrategyOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_strategy_outcomes_total",
			Help: "Transcript fetch strategy outcomes",
		},
		[]string{"strategy", "outcome"},
	)

	TranscriptCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_cache_lookups_total",
			Help: "Raw transcript cache lookups",
		},
		[]string{"result"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_generation_duration_seconds",
			Help:    "Duration of content generation calls",
			Buckets: []float64{0.05, 0.5, 2, 5, 10, 30, 60},
		},
		[]string{"kind", "status"},
	)

	QuizAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_total",
			Help: "Total number of recorded quiz attempts",
		},
	)

	ProcessedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_records_processed_total",
			Help: "Learning records by source and final status",
		},
		[]string{"source", "status"},
	)
)

func Init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDuration,
		TranscriptStrategyOutcomes,
		TranscriptCacheLookups,
		GenerationDuration,
		QuizAttempts,
		ProcessedRecords,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
