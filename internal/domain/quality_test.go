package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityTableLookup(t *testing.T) {
	q := DefaultQualityTable()

	assert.Equal(t, Tier(10), q.Lookup(SourceAudited))
	assert.Equal(t, Tier(9), q.Lookup(SourceFeed))
	assert.Equal(t, Tier(8), q.Lookup(SourceStatements))
	assert.Equal(t, Tier(7), q.Lookup(SourceLiveQuote))
	assert.Equal(t, Tier(6), q.Lookup(SourceAggregator))
	assert.Equal(t, Tier(4), q.Lookup(SourceDerived))
	assert.Equal(t, Tier(1), q.Lookup(SourceWebSearch))

	// Unknown tags land on the unlabeled tier.
	assert.Equal(t, q.Unlabeled, q.Lookup(SourceTag("mystery_vendor")))
}

func TestExtractionTierIsLowestNonZero(t *testing.T) {
	q := DefaultQualityTable()
	assert.Equal(t, Tier(1), q.ExtractionTier())

	// Reconfigured table without the websearch entry still yields the
	// lowest remaining tier.
	custom := QualityTable{
		Tiers: map[SourceTag]Tier{
			SourceFeed:       9,
			SourceAggregator: 6,
			SourceDerived:    4,
		},
		Unlabeled: 5,
	}
	assert.Equal(t, Tier(4), custom.ExtractionTier())

	// Empty table falls back to 1 rather than zero.
	assert.Equal(t, Tier(1), QualityTable{}.ExtractionTier())
}

func TestSnapshotSetDropsNil(t *testing.T) {
	s := NewSnapshot(SourceFeed, "AAPL")
	s.Set(FieldPrice, 101.5)
	s.Set(FieldTrailingPE, nil)

	assert.True(t, !s.IsEmpty())
	_, ok := s.Fields[FieldTrailingPE]
	assert.False(t, ok, "nil values must not create keys")

	v, ok := s.Float(FieldPrice)
	assert.True(t, ok)
	assert.Equal(t, 101.5, v)
}
