package domain

import "time"

// ProfileMeta is the audit sub-object every merged profile carries, even on
// total failure.
type ProfileMeta struct {
	Symbol           string                  `json:"symbol"`
	CoveragePct      float64                 `json:"coverage_pct"`
	SourcesUsed      []string                `json:"sources_used"`
	FieldSources     map[FieldName]SourceTag `json:"field_sources"`
	FieldQuality     map[FieldName]Tier      `json:"field_quality"`
	GapsFilled       int                     `json:"gaps_filled"`
	DataQualityNotes []string                `json:"data_quality_notes"`
	Error            string                  `json:"error,omitempty"`
}

// MergedProfile is the canonical per-ticker output: a flat field map plus
// provenance metadata. Profiles are value-copied between merge passes, never
// mutated in place; Clone is the only sanctioned way to derive a new one.
type MergedProfile struct {
	Fields map[FieldName]any `json:"fields"`
	Meta   ProfileMeta       `json:"meta"`
}

// NewProfile returns an empty profile for a symbol with all metadata
// containers allocated.
func NewProfile(symbol string) *MergedProfile {
	return &MergedProfile{
		Fields: make(map[FieldName]any),
		Meta: ProfileMeta{
			Symbol:           symbol,
			SourcesUsed:      []string{},
			FieldSources:     make(map[FieldName]SourceTag),
			FieldQuality:     make(map[FieldName]Tier),
			DataQualityNotes: []string{},
		},
	}
}

// FailedProfile is the total-failure marker: no fields, an error string,
// and the symbol for correlation. The engine never raises instead.
func FailedProfile(symbol, errMsg string) *MergedProfile {
	p := NewProfile(symbol)
	p.Meta.Error = errMsg
	return p
}

// Clone deep-copies the profile so a later phase can produce a new record
// without touching this one.
func (p *MergedProfile) Clone() *MergedProfile {
	out := NewProfile(p.Meta.Symbol)
	for k, v := range p.Fields {
		out.Fields[k] = v
	}
	out.Meta.CoveragePct = p.Meta.CoveragePct
	out.Meta.GapsFilled = p.Meta.GapsFilled
	out.Meta.Error = p.Meta.Error
	out.Meta.SourcesUsed = append([]string{}, p.Meta.SourcesUsed...)
	out.Meta.DataQualityNotes = append([]string{}, p.Meta.DataQualityNotes...)
	for k, v := range p.Meta.FieldSources {
		out.Meta.FieldSources[k] = v
	}
	for k, v := range p.Meta.FieldQuality {
		out.Meta.FieldQuality[k] = v
	}
	return out
}

// Float reads a numeric field from the merged map.
func (p *MergedProfile) Float(f FieldName) (float64, bool) {
	return asFloat(p.Fields[f])
}

// Str reads a text field from the merged map.
func (p *MergedProfile) Str(f FieldName) (string, bool) {
	s, ok := p.Fields[f].(string)
	return s, ok
}

// Time reads a timestamp field from the merged map.
func (p *MergedProfile) Time(f FieldName) (time.Time, bool) {
	t, ok := p.Fields[f].(time.Time)
	return t, ok
}

// Has reports whether a field is present and non-nil.
func (p *MergedProfile) Has(f FieldName) bool {
	v, ok := p.Fields[f]
	return ok && v != nil
}

// Coverage recomputes the fraction of ImportantFields that are populated.
func (p *MergedProfile) Coverage() float64 {
	n := 0
	for _, f := range ImportantFields {
		if p.Has(f) {
			n++
		}
	}
	return float64(n) / float64(len(ImportantFields))
}

// MissingImportant lists the important fields still unpopulated.
func (p *MergedProfile) MissingImportant() []FieldName {
	var out []FieldName
	for _, f := range ImportantFields {
		if !p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
