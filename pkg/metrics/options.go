// Package metrics exports ballot interpretation counters and stage timings
// to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace replaces the "ballot" prefix of every exported name, as in
// ballot_interpreter_interpretations_total. Empty keeps the default.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "interpreter" part of exported names, so two
// interpreters scraped by one Prometheus can be told apart.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithStageBuckets sets the upper bounds, in seconds, of the
// stage_duration_seconds histogram. Bounds that are not positive and
// strictly increasing are ignored.
func WithStageBuckets(bounds []float64) Option {
	return func(m *Manager) {
		if len(bounds) == 0 || bounds[0] <= 0 {
			return
		}
		for i := 1; i < len(bounds); i++ {
			if bounds[i] <= bounds[i-1] {
				return
			}
		}
		m.stageBuckets = bounds
	}
}

// WithRegistry registers the interpretation, side failure, stage, oval and
// inferred mark collectors on registry instead of a private one.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
