// Package metrics provides Prometheus metrics for the course advisor.
package metrics

import (
	"time"

	"course-advisor/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts answered queries by route and source tool.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "queries_total",
			Help:      "Total number of answered queries",
		},
		[]string{"route", "source_tool"},
	)

	// AbsorbedFailuresTotal counts stage failures that were folded into a result.
	AbsorbedFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "absorbed_failures_total",
			Help:      "Total number of stage failures absorbed into answers",
		},
		[]string{"stage"},
	)

	// StageDuration measures router, provider and whole-agent latency.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "advisor",
			Name:      "stage_duration_seconds",
			Help:      "Duration of dispatcher stages in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// IndexedChunksTotal counts chunks written by ingestion runs.
	IndexedChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "indexed_chunks_total",
			Help:      "Total number of chunks upserted into the document index",
		},
		[]string{"trigger"},
	)
)

// Recorder feeds dispatcher observations into the package collectors.
type Recorder struct{}

// NewRecorder returns a Recorder.
func NewRecorder() Recorder {
	return Recorder{}
}

func (Recorder) QueryAnswered(route domain.Category, tool domain.SourceTool) {
	QueriesTotal.WithLabelValues(route.String(), string(tool)).Inc()
}

func (Recorder) FailureAbsorbed(stage string) {
	AbsorbedFailuresTotal.WithLabelValues(stage).Inc()
}

func (Recorder) StageCompleted(stage string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordIndexed records chunks written by an ingestion run.
func RecordIndexed(trigger string, chunks int) {
	IndexedChunksTotal.WithLabelValues(trigger).Add(float64(chunks))
}
