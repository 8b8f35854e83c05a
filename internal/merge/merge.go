// Package merge combines source snapshots into one canonical profile using
// the quality-tier model.
package merge

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/metrics"
)

// scaleBandLow/High bound the candidate/incumbent ratio treated as a
// minor-unit mismatch (pence vs pounds lands at ~100x).
const (
	scaleBandLow  = 90.0
	scaleBandHigh = 110.0
)

// Engine merges snapshots deterministically: snapshots process in ascending
// base-tier order, the winner per field is the highest tier seen, and ties
// keep the earlier writer. Arrival order never matters.
type Engine struct {
	quality domain.QualityTable
	metrics *metrics.Collector
}

// New builds a merge engine around an injected quality table.
func New(quality domain.QualityTable, m *metrics.Collector) *Engine {
	return &Engine{quality: quality, metrics: m}
}

// Merge builds a fresh profile for the symbol from the snapshot set.
func (e *Engine) Merge(symbol string, snaps map[domain.SourceTag]*domain.SourceSnapshot) *domain.MergedProfile {
	p, _ := e.MergeInto(domain.NewProfile(symbol), snaps)
	return p
}

// MergeInto merges snapshots over an existing profile, returning a new
// profile (the input is never mutated) and the count of previously-empty
// fields that got filled. Gap-fill uses the count; the primary merge
// ignores it.
func (e *Engine) MergeInto(base *domain.MergedProfile, snaps map[domain.SourceTag]*domain.SourceSnapshot) (*domain.MergedProfile, int) {
	p := base.Clone()
	filled := 0

	for _, snap := range e.orderSnapshots(snaps) {
		if snap.IsEmpty() {
			continue
		}
		baseTier := e.quality.Lookup(snap.Source)
		for _, f := range orderFields(snap) {
			v := snap.Fields[f]
			tag, tier := snap.Source, baseTier
			if ov, ok := snap.Overrides[f]; ok {
				tag, tier = ov, e.quality.Lookup(ov)
			}
			v, note := e.correctScale(p, f, v)

			cur, exists := p.Fields[f]
			switch {
			case !exists || cur == nil:
				e.accept(p, f, v, tag, tier, note)
				filled++
			case tier > p.Meta.FieldQuality[f]:
				log.Debug().Str("symbol", p.Meta.Symbol).Str("field", string(f)).
					Str("old_source", string(p.Meta.FieldSources[f])).
					Str("new_source", string(tag)).
					Int("old_tier", int(p.Meta.FieldQuality[f])).
					Int("new_tier", int(tier)).
					Msg("Field provenance changed")
				e.accept(p, f, v, tag, tier, note)
			default:
				// lower or equal tier: discard, earlier writer keeps the tie
			}
		}
		p.Meta.SourcesUsed = appendUnique(p.Meta.SourcesUsed, string(snap.Source))
	}

	p.Meta.CoveragePct = p.Coverage()
	return p, filled
}

func (e *Engine) accept(p *domain.MergedProfile, f domain.FieldName, v any, tag domain.SourceTag, tier domain.Tier, note string) {
	p.Fields[f] = v
	p.Meta.FieldSources[f] = tag
	p.Meta.FieldQuality[f] = tier
	if note != "" {
		p.Meta.DataQualityNotes = append(p.Meta.DataQualityNotes, note)
	}
	e.metrics.MergedField(string(tag))
}

// correctScale rescales an incoming price-like candidate whose ratio to the
// already-accepted value sits in the minor-unit band around 100x. The
// candidate is brought to the incumbent's scale; tier comparison then
// decides the winner as usual. The note travels with the candidate and is
// recorded only if the candidate wins, so a discarded value never claims it
// was rescaled and used. Deliberately narrow: only the fields in
// ScaleSensitiveFields, only within the band.
func (e *Engine) correctScale(p *domain.MergedProfile, f domain.FieldName, v any) (any, string) {
	if !domain.ScaleSensitiveFields[f] {
		return v, ""
	}
	candidate, ok := v.(float64)
	if !ok || candidate <= 0 {
		return v, ""
	}
	incumbent, ok := p.Float(f)
	if !ok || incumbent <= 0 {
		return v, ""
	}

	switch ratio := candidate / incumbent; {
	case ratio >= scaleBandLow && ratio <= scaleBandHigh:
		rescaled := candidate / 100
		return rescaled, fmt.Sprintf(
			"%s: candidate %.4f rescaled to %.4f (minor-unit mismatch vs accepted %.4f)",
			f, candidate, rescaled, incumbent)
	case 1/ratio >= scaleBandLow && 1/ratio <= scaleBandHigh:
		rescaled := candidate * 100
		return rescaled, fmt.Sprintf(
			"%s: candidate %.4f rescaled to %.4f (minor-unit mismatch vs accepted %.4f)",
			f, candidate, rescaled, incumbent)
	}
	return v, ""
}

// orderSnapshots fixes processing order: ascending base tier, then source
// tag. Identical inputs always merge identically.
func (e *Engine) orderSnapshots(snaps map[domain.SourceTag]*domain.SourceSnapshot) []*domain.SourceSnapshot {
	out := make([]*domain.SourceSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if s != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := e.quality.Lookup(out[i].Source), e.quality.Lookup(out[j].Source)
		if ti != tj {
			return ti < tj
		}
		return out[i].Source < out[j].Source
	})
	return out
}

func orderFields(s *domain.SourceSnapshot) []domain.FieldName {
	out := make([]domain.FieldName, 0, len(s.Fields))
	for f := range s.Fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
