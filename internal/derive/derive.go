// Package derive computes secondary metrics from primary ones, only when
// the inputs exist and the target does not.
package derive

import (
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/domain"
)

// Calculator fills derivable gaps. Derived values carry the synthetic
// "derived" tag and its configured tier; they never overwrite anything.
type Calculator struct {
	quality domain.QualityTable
}

// New builds a calculator around the injected quality table.
func New(quality domain.QualityTable) *Calculator {
	return &Calculator{quality: quality}
}

// Apply returns a new profile with derivable fields filled in. The input
// profile is never mutated.
func (c *Calculator) Apply(p *domain.MergedProfile) *domain.MergedProfile {
	out := p.Clone()
	tier := c.quality.Lookup(domain.SourceDerived)

	// cap ≈ price × shares
	if !out.Has(domain.FieldMarketCap) {
		price, okP := out.Float(domain.FieldPrice)
		shares, okS := out.Float(domain.FieldShares)
		if okP && okS && price > 0 && shares > 0 {
			c.set(out, domain.FieldMarketCap, price*shares, tier)
		}
	}

	// ROE ≈ ROA × (1 + D/E)
	if !out.Has(domain.FieldROE) {
		roa, okA := out.Float(domain.FieldROA)
		de, okD := out.Float(domain.FieldDebtEquity)
		if okA && okD && de >= 0 {
			c.set(out, domain.FieldROE, roa*(1+de), tier)
		}
	}

	// shares ≈ cap / price
	if !out.Has(domain.FieldShares) {
		cap, okC := out.Float(domain.FieldMarketCap)
		price, okP := out.Float(domain.FieldPrice)
		if okC && okP && price > 0 {
			c.set(out, domain.FieldShares, cap/price, tier)
		}
	}

	// PEG ≈ trailing PE / (eps growth × 100)
	if !out.Has(domain.FieldPEG) {
		pe, okP := out.Float(domain.FieldTrailingPE)
		growth, okG := out.Float(domain.FieldEPSGrowth)
		if okP && okG && growth > 0 {
			c.set(out, domain.FieldPEG, pe/(growth*100), tier)
		}
	}

	out.Meta.CoveragePct = out.Coverage()
	return out
}

func (c *Calculator) set(p *domain.MergedProfile, f domain.FieldName, v float64, tier domain.Tier) {
	p.Fields[f] = v
	p.Meta.FieldSources[f] = domain.SourceDerived
	p.Meta.FieldQuality[f] = tier
	log.Debug().Str("symbol", p.Meta.Symbol).Str("field", string(f)).
		Float64("value", v).Msg("Derived field filled")
}
