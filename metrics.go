// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for one or more Updaters. A Metrics is
// both a CycleObserver and a LifecycleListener, so it can be wired in
// with WithCycleObserver and WithListeners.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec   // cycles by updater name and outcome
	CycleDuration *prometheus.HistogramVec // cycle duration by updater name
	Running       *prometheus.GaugeVec     // 1 while an updater is running
	LastSuccess   *prometheus.GaugeVec     // unix time of the last successful cycle
}

var (
	_ CycleObserver     = (*Metrics)(nil)
	_ LifecycleListener = (*Metrics)(nil)
)

// NewMetrics creates and registers the metrics for Updaters. The namespace
// is prepended to every metric name and may be empty.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresher_cycles_total",
			Help:      "Total number of scheduled update cycles by outcome",
		}, []string{"name", "outcome"}),

		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresher_cycle_duration_seconds",
			Help:      "Duration of scheduled update cycles, including throttle sleeps",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),

		Running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresher_running",
			Help:      "Whether the updater is running (1) or not (0)",
		}, []string{"name"}),

		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresher_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful scheduled update cycle",
		}, []string{"name"}),
	}

	for _, c := range []prometheus.Collector{m.CyclesTotal, m.CycleDuration, m.Running, m.LastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveCycle records the result of one scheduled cycle.
func (m *Metrics) ObserveCycle(r CycleResult) {
	m.CyclesTotal.WithLabelValues(r.Name, r.Outcome.String()).Inc()
	m.CycleDuration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())
	if r.Outcome == OutcomeSucceeded {
		m.LastSuccess.WithLabelValues(r.Name).Set(float64(r.Start.Add(r.Duration).Unix()))
	}
}

// OnLifecycleEvent tracks the running gauge. It never cancels.
func (m *Metrics) OnLifecycleEvent(e LifecycleEvent) Decision {
	switch e.Type {
	case EventStarted:
		m.Running.WithLabelValues(e.State.Name).Set(1)

	case EventStopped:
		m.Running.WithLabelValues(e.State.Name).Set(0)
	}

	return Continue()
}
