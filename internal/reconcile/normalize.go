package reconcile

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/fx"
)

// normalize applies exchange conventions and FX conversion: fills a missing
// currency from the ticker's suffix, undoes a minor-unit price when the
// triangle proves it, and synthesizes market_cap_usd. All writes carry the
// synthetic "normalized" tag. Returns a new profile.
func (e *Engine) normalize(t domain.Ticker, p *domain.MergedProfile) *domain.MergedProfile {
	out := p.Clone()

	if _, ok := out.Str(domain.FieldCurrency); !ok {
		if def := t.DefaultCurrency(); def != "" {
			out.Fields[domain.FieldCurrency] = def
			out.Meta.FieldSources[domain.FieldCurrency] = domain.SourceNormalized
			out.Meta.FieldQuality[domain.FieldCurrency] = e.quality.Lookup(domain.SourceNormalized)
			out.Meta.DataQualityNotes = append(out.Meta.DataQualityNotes,
				fmt.Sprintf("currency defaulted to %s from exchange suffix .%s", def, t.Suffix))
		}
	}

	e.fixMinorUnitPrice(t, out)
	e.capInUSD(out)

	out.Meta.CoveragePct = out.Coverage()
	return out
}

// fixMinorUnitPrice divides a pence-quoted price back to pounds, but only
// when the venue is a minor-unit venue AND the triangle confirms the 100x
// signature. Convention alone is not proof: plenty of feeds pre-convert.
func (e *Engine) fixMinorUnitPrice(t domain.Ticker, p *domain.MergedProfile) {
	if !t.QuotedInMinorUnits() {
		return
	}
	price, okP := p.Float(domain.FieldPrice)
	shares, okS := p.Float(domain.FieldShares)
	cap, okC := p.Float(domain.FieldMarketCap)
	if !okP || !okS || !okC || cap <= 0 || price <= 0 || shares <= 0 {
		return
	}
	ratio := price * shares / cap
	if ratio < 90 || ratio > 110 {
		return
	}

	fixed := price / 100
	p.Fields[domain.FieldPrice] = fixed
	p.Meta.FieldSources[domain.FieldPrice] = domain.SourceNormalized
	p.Meta.FieldQuality[domain.FieldPrice] = e.quality.Lookup(domain.SourceNormalized)
	p.Meta.DataQualityNotes = append(p.Meta.DataQualityNotes, fmt.Sprintf(
		"current_price %.4f converted from minor units to %.4f (.%s venue, triangle ratio %.1f)",
		price, fixed, t.Suffix, ratio))
	log.Debug().Str("symbol", p.Meta.Symbol).Float64("from", price).Float64("to", fixed).
		Msg("Minor-unit price normalized")
}

// capInUSD converts market cap into USD using the FX cache, falling back to
// the static table when the cache misses.
func (e *Engine) capInUSD(p *domain.MergedProfile) {
	cap, ok := p.Float(domain.FieldMarketCap)
	if !ok || cap <= 0 {
		return
	}
	cur, ok := p.Str(domain.FieldCurrency)
	if !ok || cur == "" {
		return
	}
	if cur == "USD" {
		p.Fields[domain.FieldMarketCapUSD] = cap
		p.Meta.FieldSources[domain.FieldMarketCapUSD] = domain.SourceNormalized
		p.Meta.FieldQuality[domain.FieldMarketCapUSD] = e.quality.Lookup(domain.SourceNormalized)
		return
	}

	rate, ok := e.rates.GetRate(cur, "USD")
	if !ok {
		rate, ok = fx.Fallback(cur, "USD")
		if !ok {
			log.Debug().Str("symbol", p.Meta.Symbol).Str("currency", cur).
				Msg("No FX rate available, skipping USD cap")
			return
		}
	}
	p.Fields[domain.FieldMarketCapUSD] = cap * rate
	p.Meta.FieldSources[domain.FieldMarketCapUSD] = domain.SourceNormalized
	p.Meta.FieldQuality[domain.FieldMarketCapUSD] = e.quality.Lookup(domain.SourceNormalized)
}
