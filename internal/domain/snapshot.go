package domain

import "time"

// SourceSnapshot is one adapter's complete, unreconciled result for one
// ticker at one fetch. Overrides carries per-field tags that substitute the
// adapter's base tier during merge.
type SourceSnapshot struct {
	Source    SourceTag               `json:"source"`
	Symbol    string                  `json:"symbol"`
	FetchedAt time.Time               `json:"fetched_at"`
	Fields    map[FieldName]any       `json:"fields"`
	Overrides map[FieldName]SourceTag `json:"overrides,omitempty"`
}

// NewSnapshot returns an empty snapshot for one source and symbol.
func NewSnapshot(source SourceTag, symbol string) *SourceSnapshot {
	return &SourceSnapshot{
		Source:    source,
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
		Fields:    make(map[FieldName]any),
	}
}

// Set stores a field value, dropping nils so absence stays absence.
func (s *SourceSnapshot) Set(f FieldName, v any) {
	if v == nil {
		return
	}
	s.Fields[f] = v
}

// SetOverride tags one field with a source whose tier replaces the
// adapter's base tier for that field only.
func (s *SourceSnapshot) SetOverride(f FieldName, tag SourceTag) {
	if s.Overrides == nil {
		s.Overrides = make(map[FieldName]SourceTag)
	}
	s.Overrides[f] = tag
}

// Float reads a numeric field. Snapshots built from JSON may carry
// json.Number-style floats only, so the assertions stay narrow.
func (s *SourceSnapshot) Float(f FieldName) (float64, bool) {
	return asFloat(s.Fields[f])
}

// IsEmpty reports whether the snapshot contributed nothing.
func (s *SourceSnapshot) IsEmpty() bool {
	return s == nil || len(s.Fields) == 0
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// PricePoint is one OHLCV bar from an adapter's price history.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}
