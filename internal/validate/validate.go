// Package validate runs the categorical check battery over a merged
// profile. It annotates and never discards: capping lives in cap.go as a
// separate explicit mutation.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/sawpanic/equityrecon/internal/domain"
)

const (
	// absurdPrice bounds a usable price from above.
	absurdPrice = 1e7

	// triangleTolerance is the accepted relative error for
	// price x shares vs reported cap.
	triangleTolerance = 0.15

	// unitBandLow/High is the ratio band read as a 100x unit mismatch.
	unitBandLow  = 90.0
	unitBandHigh = 110.0

	// staleAfterMonths bounds how old the newest fiscal timestamp may be.
	staleAfterMonths = 18
)

// Validator runs the seven categories in fixed order. Triangle and
// staleness run last so their missing-field reporting matches what basics
// and valuation already established.
type Validator struct {
	now func() time.Time
}

// New returns a validator using the wall clock.
func New() *Validator {
	return &Validator{now: time.Now}
}

// NewAt pins the clock; staleness tests need a fixed "now".
func NewAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Run executes the full battery. The profile is read-only here.
func (v *Validator) Run(requested domain.Ticker, p *domain.MergedProfile) *domain.ValidationReport {
	r := &domain.ValidationReport{Symbol: p.Meta.Symbol}
	r.Categories = append(r.Categories,
		v.basics(requested, p),
		v.rangeCategory(p, domain.CategoryValuation, valuationChecks),
		v.rangeCategory(p, domain.CategoryProfitability, profitabilityChecks),
		v.rangeCategory(p, domain.CategoryHealth, healthChecks),
		v.rangeCategory(p, domain.CategoryGrowth, growthChecks),
		v.triangle(p),
		v.staleness(p),
	)
	return r
}

func (v *Validator) basics(requested domain.Ticker, p *domain.MergedProfile) domain.CategoryResult {
	c := newResult(domain.CategoryBasics)

	if p.Meta.Symbol != requested.Symbol {
		c.Issues = append(c.Issues, fmt.Sprintf(
			"symbol mismatch: profile carries %q, requested %q", p.Meta.Symbol, requested.Symbol))
	}

	price, ok := p.Float(domain.FieldPrice)
	switch {
	case !ok:
		c.Issues = append(c.Issues, "no usable price field")
	case price <= 0:
		c.Issues = append(c.Issues, fmt.Sprintf("price %.4f is not positive", price))
	case price > absurdPrice:
		c.Issues = append(c.Issues, fmt.Sprintf("price %.2f is absurdly large", price))
	}

	if cur, ok := p.Str(domain.FieldCurrency); !ok || cur == "" {
		// absence of currency is unusual, not invalid
		c.Warnings = append(c.Warnings, "currency missing")
	}

	c.Passed = len(c.Issues) == 0
	return c
}

// rangeCheck describes one field's sanity window. Hard marks structurally
// impossible values: those become issues instead of warnings.
type rangeCheck struct {
	field    domain.FieldName
	min, max float64
	hardMin  bool // below min is impossible, not merely unusual
}

var valuationChecks = []rangeCheck{
	{field: domain.FieldTrailingPE, min: -500, max: 1000},
	{field: domain.FieldForwardPE, min: -500, max: 1000},
	{field: domain.FieldPEG, min: -50, max: 50},
	{field: domain.FieldPriceToBook, min: -100, max: 100},
	{field: domain.FieldEVToEBITDA, min: -200, max: 200},
}

var profitabilityChecks = []rangeCheck{
	{field: domain.FieldROE, min: -5, max: 5},
	{field: domain.FieldROA, min: -2, max: 2},
	{field: domain.FieldGrossMargin, min: -1, max: 1},
	{field: domain.FieldOpMargin, min: -1, max: 1},
	{field: domain.FieldNetMargin, min: -1, max: 1},
}

var healthChecks = []rangeCheck{
	{field: domain.FieldDebtEquity, min: -10, max: 50},
	{field: domain.FieldCurrentRat, min: 0, max: 50, hardMin: true},
	{field: domain.FieldQuickRatio, min: 0, max: 50, hardMin: true},
}

var growthChecks = []rangeCheck{
	{field: domain.FieldRevGrowth, min: -0.99, max: 10},
	{field: domain.FieldEPSGrowth, min: -0.99, max: 10},
	{field: domain.FieldDividendYld, min: 0, max: 0.5, hardMin: true},
}

func (v *Validator) rangeCategory(p *domain.MergedProfile, name string, checks []rangeCheck) domain.CategoryResult {
	c := newResult(name)
	for _, chk := range checks {
		val, ok := p.Float(chk.field)
		if !ok {
			// absence is recorded, never penalized
			c.Missing = append(c.Missing, string(chk.field))
			continue
		}
		switch {
		case val < chk.min && chk.hardMin:
			c.Issues = append(c.Issues, fmt.Sprintf(
				"%s %.4f is structurally impossible (below %.2f)", chk.field, val, chk.min))
		case val < chk.min || val > chk.max:
			c.Warnings = append(c.Warnings, fmt.Sprintf(
				"%s %.4f outside sane range [%.2f, %.2f]", chk.field, val, chk.min, chk.max))
		}
	}
	c.Passed = len(c.Issues) == 0
	return c
}

// triangle checks price x shares ~= reported cap. A ratio near 100x is the
// minor-unit signature and a hard issue; any other large deviation is soft.
func (v *Validator) triangle(p *domain.MergedProfile) domain.CategoryResult {
	c := newResult(domain.CategoryTriangle)

	price, okP := p.Float(domain.FieldPrice)
	shares, okS := p.Float(domain.FieldShares)
	cap, okC := p.Float(domain.FieldMarketCap)
	if !okP || !okS || !okC || cap == 0 {
		for f, ok := range map[domain.FieldName]bool{
			domain.FieldPrice: okP, domain.FieldShares: okS, domain.FieldMarketCap: okC,
		} {
			if !ok {
				c.Missing = append(c.Missing, string(f))
			}
		}
		c.Passed = true
		return c
	}

	implied := price * shares
	ratio := implied / cap
	relErr := math.Abs(implied-cap) / math.Abs(cap)

	switch {
	case relErr <= triangleTolerance:
		// consistent
	case ratio >= unitBandLow && ratio <= unitBandHigh:
		c.Issues = append(c.Issues, fmt.Sprintf(
			"price x shares exceeds reported cap by ~100x (ratio %.1f): minor-unit mismatch", ratio))
	case ratio > 0 && 1/ratio >= unitBandLow && 1/ratio <= unitBandHigh:
		c.Issues = append(c.Issues, fmt.Sprintf(
			"reported cap exceeds price x shares by ~100x (ratio %.4f): minor-unit mismatch", ratio))
	default:
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"price x shares (%.0f) deviates from reported cap (%.0f) by %.0f%%",
			implied, cap, relErr*100))
	}

	c.Passed = len(c.Issues) == 0
	return c
}

// staleness warns when the newest fiscal/earnings timestamp is 18 months
// old or more. Never an issue: some instruments report infrequently.
func (v *Validator) staleness(p *domain.MergedProfile) domain.CategoryResult {
	c := newResult(domain.CategoryStaleness)

	newest := time.Time{}
	newestField := domain.FieldName("")
	for _, f := range []domain.FieldName{domain.FieldEarningsTS, domain.FieldFiscalEnd} {
		if ts, ok := p.Time(f); ok && ts.After(newest) {
			newest = ts
			newestField = f
		}
	}
	if newest.IsZero() {
		c.Missing = append(c.Missing, string(domain.FieldFiscalEnd), string(domain.FieldEarningsTS))
		c.Passed = true
		return c
	}

	cutoff := v.now().AddDate(0, -staleAfterMonths, 0)
	if !newest.After(cutoff) {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"%s is stale: %s is %d+ months old", newestField,
			newest.Format("2006-01-02"), staleAfterMonths))
	}

	c.Passed = true
	return c
}

func newResult(name string) domain.CategoryResult {
	return domain.CategoryResult{
		Category: name,
		Issues:   []string{},
		Warnings: []string{},
	}
}
