package validator

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks engine activity using lock-free atomic counters.
// All methods are safe for concurrent use.
type Metrics struct {
	// Validation counts per final flag
	validationsTotal   atomic.Uint64
	validationsOK      atomic.Uint64
	validationsWarning atomic.Uint64
	validationsError   atomic.Uint64
	validationsFatal   atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMax   atomic.Uint64

	// Check execution
	checksTotal  atomic.Uint64
	checksFailed atomic.Uint64

	// Configuration cache
	configHits   atomic.Uint64
	configMisses atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordValidation records a completed validation and its final flag.
func (m *Metrics) RecordValidation(duration time.Duration, flag Flag) {
	m.validationsTotal.Add(1)
	switch {
	case flag >= FlagFatal:
		m.validationsFatal.Add(1)
	case flag >= FlagError:
		m.validationsError.Add(1)
	case flag >= FlagWarning:
		m.validationsWarning.Add(1)
	default:
		m.validationsOK.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	m.validationTimeTotal.Add(ns)
	for {
		max := m.validationTimeMax.Load()
		if ns <= max || m.validationTimeMax.CompareAndSwap(max, ns) {
			break
		}
	}
}

// RecordCheck records one executed check.
func (m *Metrics) RecordCheck(failed bool) {
	m.checksTotal.Add(1)
	if failed {
		m.checksFailed.Add(1)
	}
}

// RecordConfigLookup records a configuration cache lookup.
func (m *Metrics) RecordConfigLookup(hit bool) {
	if hit {
		m.configHits.Add(1)
	} else {
		m.configMisses.Add(1)
	}
}

// Validations returns the total number of completed validations.
func (m *Metrics) Validations() uint64 {
	return m.validationsTotal.Load()
}

// AverageDuration returns the mean validation duration.
func (m *Metrics) AverageDuration() time.Duration {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.validationTimeTotal.Load() / total)
}

// MaxDuration returns the longest observed validation duration.
func (m *Metrics) MaxDuration() time.Duration {
	return time.Duration(m.validationTimeMax.Load())
}

// Collector bridges Metrics into a prometheus.Collector so a hosting
// process can register the engine alongside its own metrics.
type Collector struct {
	metrics *Metrics

	validationsDesc *prometheus.Desc
	durationDesc    *prometheus.Desc
	checksDesc      *prometheus.Desc
	configDesc      *prometheus.Desc
}

// NewCollector creates a collector exposing the given metrics.
func NewCollector(metrics *Metrics) *Collector {
	return &Collector{
		metrics: metrics,
		validationsDesc: prometheus.NewDesc(
			"vefa_validations_total",
			"Completed validations by final flag.",
			[]string{"flag"}, nil),
		durationDesc: prometheus.NewDesc(
			"vefa_validation_seconds_total",
			"Total wall time spent validating.",
			nil, nil),
		checksDesc: prometheus.NewDesc(
			"vefa_checks_total",
			"Executed checks by outcome.",
			[]string{"outcome"}, nil),
		configDesc: prometheus.NewDesc(
			"vefa_configuration_lookups_total",
			"Configuration cache lookups by result.",
			[]string{"result"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.validationsDesc
	ch <- c.durationDesc
	ch <- c.checksDesc
	ch <- c.configDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.metrics

	ch <- prometheus.MustNewConstMetric(c.validationsDesc, prometheus.CounterValue,
		float64(m.validationsOK.Load()), "ok")
	ch <- prometheus.MustNewConstMetric(c.validationsDesc, prometheus.CounterValue,
		float64(m.validationsWarning.Load()), "warning")
	ch <- prometheus.MustNewConstMetric(c.validationsDesc, prometheus.CounterValue,
		float64(m.validationsError.Load()), "error")
	ch <- prometheus.MustNewConstMetric(c.validationsDesc, prometheus.CounterValue,
		float64(m.validationsFatal.Load()), "fatal")

	ch <- prometheus.MustNewConstMetric(c.durationDesc, prometheus.CounterValue,
		time.Duration(m.validationTimeTotal.Load()).Seconds())

	failed := m.checksFailed.Load()
	ch <- prometheus.MustNewConstMetric(c.checksDesc, prometheus.CounterValue,
		float64(m.checksTotal.Load()-failed), "completed")
	ch <- prometheus.MustNewConstMetric(c.checksDesc, prometheus.CounterValue,
		float64(failed), "failed")

	ch <- prometheus.MustNewConstMetric(c.configDesc, prometheus.CounterValue,
		float64(m.configHits.Load()), "hit")
	ch <- prometheus.MustNewConstMetric(c.configDesc, prometheus.CounterValue,
		float64(m.configMisses.Load()), "miss")
}
