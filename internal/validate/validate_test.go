package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrecon/internal/domain"
)

func ticker(t *testing.T, raw string) domain.Ticker {
	t.Helper()
	tk, err := domain.ParseTicker(raw)
	require.NoError(t, err)
	return tk
}

func profileWith(fields map[domain.FieldName]any) *domain.MergedProfile {
	p := domain.NewProfile("TEST")
	for f, v := range fields {
		p.Fields[f] = v
	}
	return p
}

func TestRunReportsAllCategoriesInOrder(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:    100.0,
		domain.FieldCurrency: "USD",
	})
	r := New().Run(ticker(t, "TEST"), p)

	want := []string{
		domain.CategoryBasics,
		domain.CategoryValuation,
		domain.CategoryProfitability,
		domain.CategoryHealth,
		domain.CategoryGrowth,
		domain.CategoryTriangle,
		domain.CategoryStaleness,
	}
	require.Len(t, r.Categories, len(want))
	for i, c := range r.Categories {
		assert.Equal(t, want[i], c.Category)
	}
	assert.True(t, r.Passed())
}

func TestBasicsPriceChecks(t *testing.T) {
	tests := []struct {
		name      string
		price     any
		wantIssue bool
	}{
		{name: "sane price", price: 230.5, wantIssue: false},
		{name: "missing price", price: nil, wantIssue: true},
		{name: "zero price", price: 0.0, wantIssue: true},
		{name: "negative price", price: -4.0, wantIssue: true},
		{name: "absurd price", price: 2e7, wantIssue: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profileWith(map[domain.FieldName]any{
				domain.FieldPrice:    tt.price,
				domain.FieldCurrency: "USD",
			})
			r := New().Run(ticker(t, "TEST"), p)
			c := r.Category(domain.CategoryBasics)
			require.NotNil(t, c)
			if tt.wantIssue {
				assert.False(t, c.Passed)
				assert.NotEmpty(t, c.Issues)
			} else {
				assert.True(t, c.Passed)
			}
		})
	}
}

func TestMissingFieldsAreRecordedNotPenalized(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:    50.0,
		domain.FieldCurrency: "USD",
	})
	r := New().Run(ticker(t, "TEST"), p)

	val := r.Category(domain.CategoryValuation)
	require.NotNil(t, val)
	assert.True(t, val.Passed)
	assert.Empty(t, val.Issues)
	assert.Contains(t, val.Missing, string(domain.FieldTrailingPE))
	assert.Contains(t, val.Missing, string(domain.FieldPEG))
}

func TestRangeWarningsVersusHardIssues(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:      50.0,
		domain.FieldCurrency:   "USD",
		domain.FieldROE:        7.5,  // outside sane range, soft
		domain.FieldCurrentRat: -0.4, // structurally impossible, hard
	})
	r := New().Run(ticker(t, "TEST"), p)

	prof := r.Category(domain.CategoryProfitability)
	require.NotNil(t, prof)
	assert.True(t, prof.Passed)
	require.Len(t, prof.Warnings, 1)
	assert.Contains(t, prof.Warnings[0], "roe")

	health := r.Category(domain.CategoryHealth)
	require.NotNil(t, health)
	assert.False(t, health.Passed)
	require.Len(t, health.Issues, 1)
	assert.Contains(t, health.Issues[0], "structurally impossible")
}

func TestTriangleConsistent(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     10.0,
		domain.FieldShares:    100.0,
		domain.FieldMarketCap: 1000.0,
	})
	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryTriangle)
	require.NotNil(t, c)
	assert.True(t, c.Passed)
	assert.Empty(t, c.Issues)
	assert.Empty(t, c.Warnings)
}

func TestTriangleMinorUnitMismatchIsHardIssue(t *testing.T) {
	// Price in pence against a cap in pounds: implied/cap lands at 100x.
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     1000.0,
		domain.FieldShares:    100.0,
		domain.FieldMarketCap: 1000.0,
	})
	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryTriangle)
	require.NotNil(t, c)
	assert.False(t, c.Passed)
	require.Len(t, c.Issues, 1)
	assert.Contains(t, c.Issues[0], "minor-unit mismatch")
}

func TestTriangleInverseMismatch(t *testing.T) {
	// Reported cap 100x the implied value.
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     10.0,
		domain.FieldShares:    100.0,
		domain.FieldMarketCap: 100000.0,
	})
	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryTriangle)
	require.NotNil(t, c)
	assert.False(t, c.Passed)
	require.Len(t, c.Issues, 1)
	assert.Contains(t, c.Issues[0], "minor-unit mismatch")
}

func TestTriangleModerateDeviationIsWarning(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:     10.0,
		domain.FieldShares:    100.0,
		domain.FieldMarketCap: 1500.0, // 33% off, neither tolerant nor 100x
	})
	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryTriangle)
	require.NotNil(t, c)
	assert.True(t, c.Passed)
	assert.Empty(t, c.Issues)
	require.Len(t, c.Warnings, 1)
}

func TestTriangleSkipsWhenLegMissing(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:  10.0,
		domain.FieldShares: 100.0,
	})
	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryTriangle)
	require.NotNil(t, c)
	assert.True(t, c.Passed)
	assert.Contains(t, c.Missing, string(domain.FieldMarketCap))
}

func TestStalenessBoundary(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	v := NewAt(func() time.Time { return now })

	fresh := profileWith(map[domain.FieldName]any{
		domain.FieldFiscalEnd: now.AddDate(0, -17, 0),
	})
	c := v.Run(ticker(t, "TEST"), fresh).Category(domain.CategoryStaleness)
	require.NotNil(t, c)
	assert.Empty(t, c.Warnings, "17 months old is still fresh")

	stale := profileWith(map[domain.FieldName]any{
		domain.FieldFiscalEnd: now.AddDate(0, -18, 0),
	})
	c = v.Run(ticker(t, "TEST"), stale).Category(domain.CategoryStaleness)
	require.NotNil(t, c)
	require.Len(t, c.Warnings, 1, "exactly 18 months old warns")
	assert.Contains(t, c.Warnings[0], string(domain.FieldFiscalEnd))
	assert.True(t, c.Passed, "staleness is never a failure")
}

func TestStalenessUsesNewestTimestamp(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	v := NewAt(func() time.Time { return now })

	p := profileWith(map[domain.FieldName]any{
		domain.FieldFiscalEnd:  now.AddDate(0, -30, 0),
		domain.FieldEarningsTS: now.AddDate(0, -2, 0),
	})
	c := v.Run(ticker(t, "TEST"), p).Category(domain.CategoryStaleness)
	require.NotNil(t, c)
	assert.Empty(t, c.Warnings, "a recent quarter supersedes an old fiscal year end")
}

func TestCapOutliers(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldGrossMargin: 1.5,    // 150% margin
		domain.FieldNetMargin:   -0.2,   // fine
		domain.FieldTrailingPE:  1500.0, // beyond any real multiple
		domain.FieldForwardPE:   25.0,   // fine
	})

	out := CapOutliers(p)

	assert.False(t, out.Has(domain.FieldGrossMargin))
	assert.False(t, out.Has(domain.FieldTrailingPE))
	assert.True(t, out.Has(domain.FieldNetMargin))
	assert.True(t, out.Has(domain.FieldForwardPE))

	require.Len(t, out.Meta.DataQualityNotes, 2)
	assert.Contains(t, out.Meta.DataQualityNotes[0], "1.5000")
	assert.Contains(t, out.Meta.DataQualityNotes[1], "1500.0000")

	// Original untouched.
	assert.True(t, p.Has(domain.FieldGrossMargin))
	assert.Empty(t, p.Meta.DataQualityNotes)
}

func TestSymbolMismatchIsIssue(t *testing.T) {
	p := profileWith(map[domain.FieldName]any{
		domain.FieldPrice:    10.0,
		domain.FieldCurrency: "USD",
	})
	p.Meta.Symbol = "OTHER"

	c := New().Run(ticker(t, "TEST"), p).Category(domain.CategoryBasics)
	require.NotNil(t, c)
	assert.False(t, c.Passed)
	require.NotEmpty(t, c.Issues)
	assert.Contains(t, c.Issues[0], "symbol mismatch")
}
