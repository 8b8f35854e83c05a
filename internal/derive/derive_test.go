package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrecon/internal/domain"
)

func profileWith(fields map[domain.FieldName]any) *domain.MergedProfile {
	p := domain.NewProfile("TEST")
	for f, v := range fields {
		p.Fields[f] = v
	}
	return p
}

func TestDeriveMarketCapFromPriceAndShares(t *testing.T) {
	c := New(domain.DefaultQualityTable())
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:  10.0,
		domain.FieldShares: 1e9,
	})

	out := c.Apply(p)
	cap, ok := out.Float(domain.FieldMarketCap)
	require.True(t, ok)
	assert.Equal(t, 1e10, cap)
	assert.Equal(t, domain.SourceDerived, out.Meta.FieldSources[domain.FieldMarketCap])
	assert.Equal(t, domain.Tier(4), out.Meta.FieldQuality[domain.FieldMarketCap])

	// Input untouched.
	assert.False(t, p.Has(domain.FieldMarketCap))
}

func TestDeriveSharesFromCapAndPrice(t *testing.T) {
	c := New(domain.DefaultQualityTable())
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     50.0,
		domain.FieldMarketCap: 5e9,
	})

	out := c.Apply(p)
	shares, ok := out.Float(domain.FieldShares)
	require.True(t, ok)
	assert.Equal(t, 1e8, shares)
}

func TestDeriveROEFromROAAndLeverage(t *testing.T) {
	c := New(domain.DefaultQualityTable())
	p := profileWith(map[domain.FieldName]any{
		domain.FieldROA:        0.08,
		domain.FieldDebtEquity: 0.5,
	})

	out := c.Apply(p)
	roe, ok := out.Float(domain.FieldROE)
	require.True(t, ok)
	assert.InDelta(t, 0.12, roe, 1e-9)
}

func TestDerivePEG(t *testing.T) {
	c := New(domain.DefaultQualityTable())
	p := profileWith(map[domain.FieldName]any{
		domain.FieldTrailingPE: 24.0,
		domain.FieldEPSGrowth:  0.12,
	})

	out := c.Apply(p)
	peg, ok := out.Float(domain.FieldPEG)
	require.True(t, ok)
	assert.InDelta(t, 2.0, peg, 1e-9)
}

func TestDeriveNeverOverwrites(t *testing.T) {
	c := New(domain.DefaultQualityTable())
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     10.0,
		domain.FieldShares:    1e9,
		domain.FieldMarketCap: 9.7e9, // reported cap disagrees with price x shares
	})
	p.Meta.FieldSources[domain.FieldMarketCap] = domain.SourceFeed
	p.Meta.FieldQuality[domain.FieldMarketCap] = 9

	out := c.Apply(p)
	cap, _ := out.Float(domain.FieldMarketCap)
	assert.Equal(t, 9.7e9, cap)
	assert.Equal(t, domain.SourceFeed, out.Meta.FieldSources[domain.FieldMarketCap])
}

func TestDeriveSkipsOnBadInputs(t *testing.T) {
	c := New(domain.DefaultQualityTable())

	// Negative growth: PEG would be meaningless.
	p := profileWith(map[domain.FieldName]any{
		domain.FieldTrailingPE: 24.0,
		domain.FieldEPSGrowth:  -0.12,
	})
	out := c.Apply(p)
	assert.False(t, out.Has(domain.FieldPEG))

	// Zero price: shares cannot be derived.
	p = profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     0.0,
		domain.FieldMarketCap: 5e9,
	})
	out = c.Apply(p)
	assert.False(t, out.Has(domain.FieldShares))
}
