package domain

// SourceTag names the origin of a field value: an adapter identity or one
// of the synthetic tags below.
type SourceTag string

const (
	// Adapter identities.
	SourceStatements SourceTag = "statements"
	SourceFeed       SourceTag = "feed"
	SourceLiveQuote  SourceTag = "livequote"
	SourceAggregator SourceTag = "aggregator"
	SourceWebSearch  SourceTag = "websearch"

	// Synthetic tags.
	SourceDerived    SourceTag = "derived"
	SourceNormalized SourceTag = "normalized"

	// Per-field override tag: values computed from audited statements
	// outrank the statements adapter's own baseline tier.
	SourceAudited SourceTag = "audited_statements"
)

// Tier is a quality rank; higher wins merge conflicts, zero means unknown.
type Tier int

// QualityTable is the versioned tier configuration injected into the merge
// engine. Not a package global: deployments override it from config.
type QualityTable struct {
	Version   string             `yaml:"version" json:"version"`
	Tiers     map[SourceTag]Tier `yaml:"tiers" json:"tiers"`
	Unlabeled Tier               `yaml:"unlabeled" json:"unlabeled"`
}

// DefaultQualityTable returns the shipped tier ranking. Web extraction is
// pinned to the lowest non-zero tier in the system.
func DefaultQualityTable() QualityTable {
	return QualityTable{
		Version: "2026-01",
		Tiers: map[SourceTag]Tier{
			SourceAudited:    10,
			SourceFeed:       9,
			SourceStatements: 8,
			SourceLiveQuote:  7,
			SourceAggregator: 6,
			SourceDerived:    4,
			SourceNormalized: 3,
			SourceWebSearch:  1,
		},
		Unlabeled: 5,
	}
}

// Lookup resolves a source tag to its tier, falling back to the unlabeled
// tier for sources the table does not know.
func (q QualityTable) Lookup(tag SourceTag) Tier {
	if t, ok := q.Tiers[tag]; ok {
		return t
	}
	return q.Unlabeled
}

// ExtractionTier is the tier assigned to web-search extraction output: the
// lowest non-zero tier the table carries.
func (q QualityTable) ExtractionTier() Tier {
	min := Tier(0)
	for _, t := range q.Tiers {
		if t <= 0 {
			continue
		}
		if min == 0 || t < min {
			min = t
		}
	}
	if min == 0 {
		min = 1
	}
	return min
}
