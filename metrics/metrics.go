// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/hsm"
)

// MetricNamespace prefixes every metric name.
const MetricNamespace = "hsm"

// Collector is an hsm.Observer that counts events, transitions and state
// entries per machine. One collector may observe many engines.
type Collector struct {
	Events      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Entries     *prometheus.CounterVec
	Active      *prometheus.GaugeVec
}

// New creates a collector and registers it on reg. Registering a second
// collector on the same registry reuses the metrics already there.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricNamespace,
				Name:      "events_total",
				Help:      "Total number of events dispatched, by outcome",
			},
			[]string{"machine", "outcome"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricNamespace,
				Name:      "transitions_total",
				Help:      "Total number of transitions executed, by kind",
			},
			[]string{"machine", "kind"},
		),
		Entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricNamespace,
				Name:      "state_entries_total",
				Help:      "Total number of times each state was entered",
			},
			[]string{"machine", "state"},
		),
		Active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: MetricNamespace,
				Name:      "active_states",
				Help:      "Number of engine instances currently in each state",
			},
			[]string{"machine", "state"},
		),
	}
	if reg == nil {
		return c, nil
	}

	var err error
	c.Events, err = register(reg, c.Events)
	if err != nil {
		return nil, err
	}
	c.Transitions, err = register(reg, c.Transitions)
	if err != nil {
		return nil, err
	}
	c.Entries, err = register(reg, c.Entries)
	if err != nil {
		return nil, err
	}
	c.Active, err = register(reg, c.Active)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like New but panics if registration fails.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// OnEvent implements hsm.Observer.
func (c *Collector) OnEvent(r hsm.EventRecord) {
	c.Events.WithLabelValues(r.Machine, string(r.Outcome)).Inc()
}

// OnTransition implements hsm.Observer.
func (c *Collector) OnTransition(r hsm.TransitionRecord) {
	c.Transitions.WithLabelValues(r.Machine, string(r.Kind)).Inc()
	for _, s := range r.Exited {
		c.Active.WithLabelValues(r.Machine, s).Dec()
	}
	for _, s := range r.Entered {
		c.Entries.WithLabelValues(r.Machine, s).Inc()
		c.Active.WithLabelValues(r.Machine, s).Inc()
	}
}
