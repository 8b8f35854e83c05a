// Package gapfill rescues missing fields through bounded web-search
// extraction, for the subset of fields safe to extract.
package gapfill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/merge"
	"github.com/sawpanic/equityrecon/internal/metrics"
	"github.com/sawpanic/equityrecon/internal/providers"
)

// searchTemplates maps each extractable field to its canned query.
var searchTemplates = map[domain.FieldName]string{
	domain.FieldROE:         "%s stock return on equity",
	domain.FieldROA:         "%s stock return on assets",
	domain.FieldGrossMargin: "%s gross margin",
	domain.FieldOpMargin:    "%s operating margin",
	domain.FieldNetMargin:   "%s net profit margin",
	domain.FieldDebtEquity:  "%s debt to equity ratio",
	domain.FieldCurrentRat:  "%s current ratio",
	domain.FieldQuickRatio:  "%s quick ratio",
	domain.FieldRevGrowth:   "%s revenue growth",
	domain.FieldEPSGrowth:   "%s eps growth",
	domain.FieldDividendYld: "%s dividend yield",
	domain.FieldPriceToBook: "%s price to book ratio",
	domain.FieldShares:      "%s shares outstanding",
}

// Controller decides when gap-filling runs and for which fields, issues the
// searches, and merges extraction output at the extraction tier.
type Controller struct {
	search    providers.SearchClient
	extractor *PatternExtractor
	merger    *merge.Engine
	cfg       config.GapFillConfig
	metrics   *metrics.Collector
}

// New builds the controller. A nil search client disables gap-filling.
func New(search providers.SearchClient, merger *merge.Engine, cfg config.GapFillConfig, m *metrics.Collector) *Controller {
	return &Controller{
		search:    search,
		extractor: NewPatternExtractor(),
		merger:    merger,
		cfg:       cfg,
		metrics:   m,
	}
}

// Apply runs the gap-fill step over a merged profile and returns the
// (possibly) enriched profile plus the number of fields rescued. The input
// profile is never mutated.
func (c *Controller) Apply(ctx context.Context, t domain.Ticker, p *domain.MergedProfile) (*domain.MergedProfile, int) {
	if c.search == nil {
		return p, 0
	}

	wanted := c.requestedFields(t, p)
	if len(wanted) == 0 {
		return p, 0
	}

	snippets := c.collect(ctx, t, wanted)
	if len(snippets) == 0 {
		log.Debug().Str("symbol", t.Symbol).Msg("Gap-fill found no rescue data")
		return p, 0
	}

	snap := c.extractor.Extract(t.Symbol, strings.Join(snippets, "\n"), wanted)
	if snap.IsEmpty() {
		return p, 0
	}

	out, filled := c.merger.MergeInto(p, map[domain.SourceTag]*domain.SourceSnapshot{
		domain.SourceWebSearch: snap,
	})
	out.Meta.GapsFilled += filled
	c.metrics.AddGapFills(filled)
	log.Info().Str("symbol", t.Symbol).Int("rescued", filled).
		Int("requested", len(wanted)).Msg("Gap-fill complete")
	return out, filled
}

// requestedFields applies the two triggers and the dangerous-field
// denylist. Result may be empty, meaning no gap-fill at all.
func (c *Controller) requestedFields(t domain.Ticker, p *domain.MergedProfile) []domain.FieldName {
	var candidates []domain.FieldName
	switch {
	case c.panicMode(t, p):
		// Primary coverage collapsed on a market known for thin feeds:
		// request the full important list.
		log.Warn().Str("symbol", t.Symbol).Msg("Gap-fill panic mode: baseline fields entirely missing")
		candidates = append(candidates, domain.ImportantFields...)
	case p.Meta.CoveragePct < c.cfg.CoverageThreshold:
		candidates = p.MissingImportant()
	default:
		return nil
	}

	out := make([]domain.FieldName, 0, len(candidates))
	for _, f := range candidates {
		if domain.DangerousFields[f] {
			continue // too hallucination-prone for their decision weight
		}
		if !c.extractor.CanExtract(f) {
			continue
		}
		if c.panicMode(t, p) || !p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Controller) panicMode(t domain.Ticker, p *domain.MergedProfile) bool {
	for _, f := range domain.BaselineFields {
		if p.Has(f) {
			return false
		}
	}
	for _, suffix := range c.cfg.PanicSuffixes {
		if strings.EqualFold(t.Suffix, suffix) {
			return true
		}
	}
	return false
}

// collect issues one bounded query per requested field and gathers the
// snippets. A query timeout contributes nothing and never aborts the call.
func (c *Controller) collect(ctx context.Context, t domain.Ticker, fields []domain.FieldName) []string {
	var snippets []string
	queries := 0
	for _, f := range fields {
		if c.cfg.MaxQueries > 0 && queries >= c.cfg.MaxQueries {
			break
		}
		tmpl, ok := searchTemplates[f]
		if !ok {
			continue
		}
		queries++

		qctx, cancel := context.WithTimeout(ctx, c.queryTimeout())
		results, err := c.search.Search(qctx, fmt.Sprintf(tmpl, t.Symbol))
		cancel()
		if err != nil {
			log.Debug().Str("symbol", t.Symbol).Str("field", string(f)).Err(err).
				Msg("Gap-fill query failed")
			continue
		}
		snippets = append(snippets, results...)
	}
	return snippets
}

func (c *Controller) queryTimeout() time.Duration {
	return c.cfg.QueryTimeout()
}
