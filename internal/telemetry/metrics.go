// Package telemetry provides Prometheus instrumentation for the sync service.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

const namespace = "feedsync"

// Ensure SyncMetrics implements the port.
var _ driven.SyncMetrics = (*SyncMetrics)(nil)

// SyncMetrics holds the Prometheus collectors for sync runs.
type SyncMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	pages         *prometheus.CounterVec
	stories       *prometheus.CounterVec
	actions       *prometheus.CounterVec
	feedCount     prometheus.Gauge
	writeDuration prometheus.Gauge
}

// NewSyncMetrics creates the collectors and registers them with reg.
// If reg is nil, it returns nil (no-op metrics).
func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &SyncMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_pages_total",
			Help:      "Story pages fetched by feed set kind.",
		}, []string{"kind"}),
		stories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stories_total",
			Help:      "Stories received by feed set kind.",
		}, []string{"kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Queued reading actions processed by kind and outcome.",
		}, []string{"kind", "outcome"}),
		feedCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feeds",
			Help:      "Feeds written by the last metadata refresh.",
		}),
		writeDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "metadata_write_seconds",
			Help:      "Duration of the last feed and folder write in seconds.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runs, m.runDuration, m.pages, m.stories, m.actions, m.feedCount, m.writeDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RunFinished records the outcome and duration of a run.
func (m *SyncMetrics) RunFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// PageFetched records one story page of a feed set kind.
func (m *SyncMetrics) PageFetched(kind string, stories int) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(kind).Inc()
	m.stories.WithLabelValues(kind).Add(float64(stories))
}

// ActionReplayed records how a queued action was handled.
func (m *SyncMetrics) ActionReplayed(kind, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
}

// MetadataWritten records the size and duration of a feed and folder write.
func (m *SyncMetrics) MetadataWritten(feeds int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.feedCount.Set(float64(feeds))
	m.writeDuration.Set(elapsed.Seconds())
}
