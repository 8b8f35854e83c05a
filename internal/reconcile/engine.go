// Package reconcile ties the phases together: fetch, merge, gap-fill,
// derive, normalize, validate, cap.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/derive"
	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/fetch"
	"github.com/sawpanic/equityrecon/internal/fx"
	"github.com/sawpanic/equityrecon/internal/gapfill"
	"github.com/sawpanic/equityrecon/internal/merge"
	"github.com/sawpanic/equityrecon/internal/metrics"
	"github.com/sawpanic/equityrecon/internal/validate"
)

// Engine is the reconciliation entry point. It never returns an error:
// total failure is expressed inside the returned profile.
type Engine struct {
	orchestrator *fetch.Orchestrator
	merger       *merge.Engine
	gapFill      *gapfill.Controller
	deriver      *derive.Calculator
	validator    *validate.Validator
	rates        fx.RateCache
	quality      domain.QualityTable
	metrics      *metrics.Collector
}

// Result pairs the profile with its validation report for callers that
// want the full audit trail.
type Result struct {
	Profile *domain.MergedProfile    `json:"profile"`
	Report  *domain.ValidationReport `json:"report"`
}

// New wires an engine from its phases.
func New(o *fetch.Orchestrator, m *merge.Engine, g *gapfill.Controller, d *derive.Calculator, v *validate.Validator, rates fx.RateCache, quality domain.QualityTable, mc *metrics.Collector) *Engine {
	return &Engine{
		orchestrator: o,
		merger:       m,
		gapFill:      g,
		deriver:      d,
		validator:    v,
		rates:        rates,
		quality:      quality,
		metrics:      mc,
	}
}

// Reconcile returns the canonical profile for a ticker.
func (e *Engine) Reconcile(ctx context.Context, rawTicker string) *domain.MergedProfile {
	return e.ReconcileDetailed(ctx, rawTicker).Profile
}

// ReconcileDetailed returns the profile plus the validation report.
func (e *Engine) ReconcileDetailed(ctx context.Context, rawTicker string) *Result {
	start := time.Now()
	callID := uuid.NewString()
	logger := log.With().Str("call_id", callID).Str("ticker", rawTicker).Logger()

	t, err := domain.ParseTicker(rawTicker)
	if err != nil {
		logger.Error().Err(err).Msg("Ticker rejected")
		return &Result{Profile: domain.FailedProfile(rawTicker, "invalid ticker: "+err.Error())}
	}

	// Phase 1: concurrent bounded fetch. Everything after runs
	// sequentially on the complete result set.
	snaps := e.orchestrator.FetchAll(ctx, t)

	// Phase 2: primary merge.
	profile := e.merger.Merge(t.Symbol, snaps)

	// Phase 3: bounded web-search rescue.
	profile, _ = e.gapFill.Apply(ctx, t, profile)

	if len(profile.Fields) == 0 {
		logger.Warn().Msg("Total failure: no adapter contributed")
		p := domain.FailedProfile(t.Symbol, "no data available from any source")
		e.metrics.ObserveReconcile(time.Since(start), 0)
		return &Result{Profile: p}
	}

	// Phase 4: derived metrics.
	profile = e.deriver.Apply(profile)

	// Phase 5: currency/unit normalization.
	profile = e.normalize(t, profile)

	// Phase 6: validation battery, then explicit outlier capping.
	report := e.validator.Run(t, profile)
	profile = validate.CapOutliers(profile)
	annotate(profile, report)

	e.metrics.ObserveReconcile(time.Since(start), profile.Meta.CoveragePct)
	logger.Info().
		Float64("coverage", profile.Meta.CoveragePct).
		Strs("sources", profile.Meta.SourcesUsed).
		Int("gaps_filled", profile.Meta.GapsFilled).
		Int("issues", report.IssueCount()).
		Int("warnings", report.WarningCount()).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation complete")

	return &Result{Profile: profile, Report: report}
}

// annotate copies validator findings into the profile's audit notes so the
// output alone preserves them.
func annotate(p *domain.MergedProfile, r *domain.ValidationReport) {
	for _, c := range r.Categories {
		for _, issue := range c.Issues {
			p.Meta.DataQualityNotes = append(p.Meta.DataQualityNotes, c.Category+" issue: "+issue)
		}
		for _, w := range c.Warnings {
			p.Meta.DataQualityNotes = append(p.Meta.DataQualityNotes, c.Category+" warning: "+w)
		}
	}
}
