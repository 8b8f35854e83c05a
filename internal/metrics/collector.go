// Package metrics exposes prometheus instrumentation for the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the engine's prometheus metrics. A nil *Collector is a
// valid no-op so call sites never branch.
type Collector struct {
	FetchDuration *prometheus.HistogramVec
	FetchOutcomes *prometheus.CounterVec
	Reconciles    prometheus.Counter
	ReconcileTime prometheus.Histogram
	GapFills      prometheus.Counter
	FieldsMerged  *prometheus.CounterVec
	BreakerOpen   *prometheus.GaugeVec
	CoverageHist  prometheus.Histogram
}

// New registers the engine metrics with a registry.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "equityrecon_fetch_duration_seconds",
			Help:    "Per-adapter fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		FetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equityrecon_fetch_outcomes_total",
			Help: "Per-adapter fetch outcomes (ok, absent, timeout, error)",
		}, []string{"provider", "outcome"}),
		Reconciles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equityrecon_reconciles_total",
			Help: "Reconciliation calls",
		}),
		ReconcileTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "equityrecon_reconcile_duration_seconds",
			Help:    "End-to-end reconciliation latency",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40},
		}),
		GapFills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equityrecon_gapfill_fields_total",
			Help: "Fields rescued by web-search extraction",
		}),
		FieldsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equityrecon_fields_merged_total",
			Help: "Fields accepted into merged profiles, by winning source",
		}, []string{"source"}),
		BreakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "equityrecon_breaker_open",
			Help: "1 when a provider breaker is open",
		}, []string{"provider"}),
		CoverageHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "equityrecon_coverage_pct",
			Help:    "Coverage over the important-fields list per call",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
	}
	reg.MustRegister(
		c.FetchDuration, c.FetchOutcomes, c.Reconciles, c.ReconcileTime,
		c.GapFills, c.FieldsMerged, c.BreakerOpen, c.CoverageHist,
	)
	return c
}

// ObserveFetch records one adapter call's outcome and latency.
func (c *Collector) ObserveFetch(provider, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.FetchDuration.WithLabelValues(provider).Observe(d.Seconds())
	c.FetchOutcomes.WithLabelValues(provider, outcome).Inc()
}

// ObserveReconcile records one full reconciliation call.
func (c *Collector) ObserveReconcile(d time.Duration, coverage float64) {
	if c == nil {
		return
	}
	c.Reconciles.Inc()
	c.ReconcileTime.Observe(d.Seconds())
	c.CoverageHist.Observe(coverage)
}

// AddGapFills counts fields rescued by extraction.
func (c *Collector) AddGapFills(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.GapFills.Add(float64(n))
}

// MergedField counts one accepted field by its winning source.
func (c *Collector) MergedField(source string) {
	if c == nil {
		return
	}
	c.FieldsMerged.WithLabelValues(source).Inc()
}

// SetBreakerOpen reflects a provider breaker state.
func (c *Collector) SetBreakerOpen(provider string, open bool) {
	if c == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	c.BreakerOpen.WithLabelValues(provider).Set(v)
}
