package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skyreport"

// Metrics collects the measurements of a single run. Each run gets its own
// registry; nothing accumulates across invocations.
type Metrics struct {
	registry *prometheus.Registry

	PhaseDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	Throughput    *prometheus.GaugeVec
	Delta         *prometheus.GaugeVec
	LastRun       prometheus.Gauge
}

// NewMetrics creates and registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"phase"},
	)

	m.Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by action and outcome",
		},
		[]string{"action", "status"},
	)

	m.Throughput = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throughput_ops_per_second",
			Help:      "Throughput measured by the last benchmark",
		},
		[]string{"metric"},
	)

	m.Delta = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delta_percent",
			Help:      "Percentage change against a baseline; absent when the baseline metric is zero",
		},
		[]string{"against", "metric"},
	)

	m.LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		},
	)

	m.registry.MustRegister(m.PhaseDuration, m.Runs, m.Throughput, m.Delta, m.LastRun)
	return m
}

// TimePhase starts a timer for phase; call the returned func when it ends.
func (m *Metrics) TimePhase(phase string) func() {
	timer := prometheus.NewTimer(m.PhaseDuration.WithLabelValues(phase))
	return func() { timer.ObserveDuration() }
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(action string, err error, at time.Time) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.Runs.WithLabelValues(action, status).Inc()
	m.LastRun.Set(float64(at.Unix()))
}

// SetThroughput records the raw metrics of the current report.
func (m *Metrics) SetThroughput(get, set, update float64) {
	m.Throughput.WithLabelValues("get").Set(get)
	m.Throughput.WithLabelValues("set").Set(set)
	m.Throughput.WithLabelValues("update").Set(update)
}

// SetDelta records one percentage change. Invalid deltas are left unset.
func (m *Metrics) SetDelta(against, metric string, value float64, valid bool) {
	if !valid {
		return
	}
	m.Delta.WithLabelValues(against, metric).Set(value)
}

// WriteTextfile writes the registry in the text exposition format to path,
// replacing any previous content, for a node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
