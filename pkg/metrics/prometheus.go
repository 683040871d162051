package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Buckets for stage durations in seconds. Whole-page stages on a 200 DPI
// scan range from a few milliseconds to a couple of seconds.
var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Manager owns the interpreter's Prometheus collectors.
type Manager struct {
	namespace    string
	subsystem    string
	stageBuckets []float64
	registry     prometheus.Registerer

	interpretations *prometheus.CounterVec
	sideFailures    *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	ovalsScored     *prometheus.CounterVec
	inferredMarks   *prometheus.CounterVec
}

// NewManager creates a metrics manager. Without WithRegistry the
// collectors are registered on a fresh private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "ballot",
		subsystem:    "interpreter",
		stageBuckets: defaultBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.interpretations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "interpretations_total",
		Help:      "Ballot cards interpreted, by result",
	}, []string{"result"})

	m.sideFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "side_failures_total",
		Help:      "Ballot sides that failed, by pipeline stage",
	}, []string{"stage"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Time spent per pipeline stage",
		Buckets:   m.stageBuckets,
	}, []string{"stage"})

	m.ovalsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ovals_scored_total",
		Help:      "Grid positions scored, by side",
	}, []string{"side"})

	m.inferredMarks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inferred_timing_marks_total",
		Help:      "Timing marks filled in by inference, by border",
	}, []string{"border"})
}

// RecordInterpretation counts one card with result "ok" or "error".
func (m *Manager) RecordInterpretation(result string) {
	m.interpretations.WithLabelValues(result).Inc()
}

// RecordSideFailure counts one failed side at the given stage.
func (m *Manager) RecordSideFailure(stage string) {
	m.sideFailures.WithLabelValues(stage).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddOvalsScored adds n scored positions for a side.
func (m *Manager) AddOvalsScored(side string, n int) {
	m.ovalsScored.WithLabelValues(side).Add(float64(n))
}

// AddInferredMarks adds n inferred marks on a border.
func (m *Manager) AddInferredMarks(border string, n int) {
	m.inferredMarks.WithLabelValues(border).Add(float64(n))
}

// Gatherer returns the registry as a Gatherer when it supports gathering.
func (m *Manager) Gatherer() prometheus.Gatherer {
	if g, ok := m.registry.(prometheus.Gatherer); ok {
		return g
	}
	return prometheus.DefaultGatherer
}

// Handler serves the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Manager) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%w: %w", ErrServe, err)
	}
	return nil
}
