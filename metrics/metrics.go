// Package metrics exports validation run statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reoring/govalid"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Observer is a govalid.Observer that records every finished run.
type Observer struct {
	runs       *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	violations *prometheus.CounterVec
	duration   prometheus.Histogram
	unexpected prometheus.Counter
	skipped    prometheus.Counter
	aborts     prometheus.Counter
}

var _ govalid.Observer = (*Observer)(nil)

// NewObserver registers the collectors on reg. A nil reg means
// prometheus.DefaultRegisterer.
func NewObserver(reg prometheus.Registerer, namespace string) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Observer{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_runs_total",
				Help:      "Total number of validation runs",
			},
			[]string{"outcome"}, // valid, invalid or failed
		),
		dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "constraint_dispatches_total",
				Help:      "Total number of constraint validator invocations",
			},
			[]string{"kind"},
		),
		violations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "violations_total",
				Help:      "Total number of violations reported",
			},
			[]string{"code"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of validation runs in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		unexpected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unexpected_values_total",
			Help:      "Total number of values a validator could not handle",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_objects_total",
			Help:      "Total number of objects not re-entered because they were already validated",
		}),
		aborts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_aborts_total",
			Help:      "Total number of group sequences stopped after a failing step",
		}),
	}
}

// ObserveRun implements govalid.Observer.
func (o *Observer) ObserveRun(s govalid.RunStats) {
	switch {
	case s.Failed:
		o.runs.WithLabelValues(OutcomeFailed).Inc()
	case s.Violations > 0:
		o.runs.WithLabelValues(OutcomeInvalid).Inc()
	default:
		o.runs.WithLabelValues(OutcomeValid).Inc()
	}
	for kind, n := range s.Dispatches {
		o.dispatches.WithLabelValues(string(kind)).Add(float64(n))
	}
	for code, n := range s.Codes {
		o.violations.WithLabelValues(code).Add(float64(n))
	}
	o.duration.Observe(s.Duration.Seconds())
	o.unexpected.Add(float64(s.UnexpectedValues))
	o.skipped.Add(float64(s.SkippedObjects))
	o.aborts.Add(float64(s.SequenceAborts))
}
