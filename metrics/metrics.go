// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the named collectors a scheduler.Runtime updates once
// per tick: ticks processed, lock-ins fired, the most recent quorum
// count, the mean support across recruiters, and transition attempt/
// success counts. Entirely optional — a Runtime with a nil *Metrics
// behaves identically, just unobserved.
type Metrics struct {
	Ticks          prometheus.Counter
	LocksFired     prometheus.Counter
	Quorum         prometheus.Gauge
	AverageSupport prometheus.Gauge

	TransitionAttempts  Counter
	TransitionSuccesses Counter
}

// NewMetrics registers every collector against reg and returns the
// assembled Metrics, or the first registration error.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etm_ticks_total",
			Help: "Total ticks processed by the scheduler.",
		}),
		LocksFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etm_locks_fired_total",
			Help: "Total lock-in events fired across the run.",
		}),
		Quorum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etm_quorum",
			Help: "Most recently observed quorum count.",
		}),
		AverageSupport: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etm_average_support",
			Help: "Mean support score across all recruiters.",
		}),
		TransitionAttempts:  NewCounter(),
		TransitionSuccesses: NewCounter(),
	}
	for _, c := range []prometheus.Collector{m.Ticks, m.LocksFired, m.Quorum, m.AverageSupport} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTick records one tick's quorum count, whether a lock fired this
// tick, and the mean recruiter support.
func (m *Metrics) ObserveTick(quorumCount int, lockFired bool, averageSupport float64) {
	m.Ticks.Inc()
	if lockFired {
		m.LocksFired.Inc()
	}
	m.Quorum.Set(float64(quorumCount))
	m.AverageSupport.Set(averageSupport)
}

// ObserveTransition records one TransitionEngine attempt.
func (m *Metrics) ObserveTransition(success bool) {
	m.TransitionAttempts.Inc()
	if success {
		m.TransitionSuccesses.Inc()
	}
}
