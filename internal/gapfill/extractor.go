package gapfill

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sawpanic/equityrecon/internal/domain"
)

// PatternExtractor parses unstructured search snippets into typed numeric
// fields using a fixed set of locale-aware numeric rules. No learning, no
// heuristics beyond the rule table.
type PatternExtractor struct {
	rules map[domain.FieldName]*fieldRule
}

type fieldRule struct {
	pattern  *regexp.Regexp
	percent  bool // value usually quoted as a percentage; store as fraction
	positive bool // negative matches are discarded
}

// numberPattern matches US (1,234.56), EU (1.234,56) and plain numerics
// with optional parenthesized negatives, scale suffix and percent sign.
const numberPattern = `\(?-?\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d+)?\)?\s*(?:[KMBT]|thousand|million|billion|trillion)?\s*%?`

func keywordRule(percent, positive bool, keywords ...string) *fieldRule {
	// keyword, then up to 40 chars of filler, then a number
	expr := `(?i)(?:` + strings.Join(keywords, "|") + `)\D{0,40}?(` + numberPattern + `)`
	return &fieldRule{
		pattern:  regexp.MustCompile(expr),
		percent:  percent,
		positive: positive,
	}
}

// NewPatternExtractor returns the extractor with its fixed rule table.
// Dangerous fields have no rules on purpose: even if a caller forgets the
// denylist, nothing can be extracted for them.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{
		rules: map[domain.FieldName]*fieldRule{
			domain.FieldROE:         keywordRule(true, false, `return on equity`, `\bROE\b`),
			domain.FieldROA:         keywordRule(true, false, `return on assets`, `\bROA\b`),
			domain.FieldGrossMargin: keywordRule(true, false, `gross margin`),
			domain.FieldOpMargin:    keywordRule(true, false, `operating margin`),
			domain.FieldNetMargin:   keywordRule(true, false, `net margin`, `profit margin`),
			domain.FieldDebtEquity:  keywordRule(false, true, `debt[\s/-]to[\s/-]equity`, `D/E ratio`),
			domain.FieldCurrentRat:  keywordRule(false, true, `current ratio`),
			domain.FieldQuickRatio:  keywordRule(false, true, `quick ratio`),
			domain.FieldRevGrowth:   keywordRule(true, false, `revenue growth`, `sales growth`),
			domain.FieldEPSGrowth:   keywordRule(true, false, `eps growth`, `earnings growth`),
			domain.FieldDividendYld: keywordRule(true, true, `dividend yield`),
			domain.FieldPriceToBook: keywordRule(false, true, `price[\s/-]to[\s/-]book`, `P/B ratio`),
			domain.FieldShares:      keywordRule(false, true, `shares outstanding`),
		},
	}
}

// CanExtract reports whether the rule table covers the field.
func (e *PatternExtractor) CanExtract(f domain.FieldName) bool {
	_, ok := e.rules[f]
	return ok
}

// Extract scans the concatenated snippet text for the requested fields and
// returns a snapshot tagged with the web-search source. Fields without a
// confident match are simply absent.
func (e *PatternExtractor) Extract(symbol, text string, fields []domain.FieldName) *domain.SourceSnapshot {
	snap := domain.NewSnapshot(domain.SourceWebSearch, symbol)
	for _, f := range fields {
		rule, ok := e.rules[f]
		if !ok {
			continue
		}
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[1])
		v, ok := ParseLocalizedNumber(raw)
		if !ok {
			continue
		}
		if rule.percent && strings.Contains(raw, "%") {
			v /= 100
		}
		if rule.positive && v < 0 {
			continue
		}
		snap.Set(f, v)
	}
	return snap
}

var suffixScale = map[string]float64{
	"K": 1e3, "THOUSAND": 1e3,
	"M": 1e6, "MILLION": 1e6,
	"B": 1e9, "BILLION": 1e9,
	"T": 1e12, "TRILLION": 1e12,
}

// ParseLocalizedNumber parses a numeric token in US or EU formatting with
// optional scale suffix, percent sign and parenthesized negative.
func ParseLocalizedNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.Contains(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		s = strings.ReplaceAll(s, ")", "")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.TrimSpace(s)

	scale := 1.0
	upper := strings.ToUpper(s)
	for suffix, mult := range suffixScale {
		if strings.HasSuffix(upper, suffix) {
			scale = mult
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	s = normalizeSeparators(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v * scale, true
}

// normalizeSeparators rewrites EU-style grouping into plain decimal form
// and strips US-style grouping commas.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// EU: dots group, comma is decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// US: commas group, dot is decimal
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// Comma only: decimal if exactly one with 1-2 trailing digits,
		// grouping otherwise ("3,5" is EU decimal, "25,000" is grouping).
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		// Dot only: grouping when it looks like "1.234" repeated groups
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}
