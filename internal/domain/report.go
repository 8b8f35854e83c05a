package domain

// Validation categories, in fixed run order. Triangle and staleness always
// run after the presence-oriented categories so missing-field reporting is
// consistent.
const (
	CategoryBasics        = "basics"
	CategoryValuation     = "valuation"
	CategoryProfitability = "profitability"
	CategoryHealth        = "financial_health"
	CategoryGrowth        = "growth"
	CategoryTriangle      = "triangle"
	CategoryStaleness     = "staleness"
)

// CategoryResult is one validator category's outcome. Issues fail the
// category; warnings leave it passing.
type CategoryResult struct {
	Category string   `json:"category"`
	Passed   bool     `json:"passed"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Missing  []string `json:"missing,omitempty"`
}

// ValidationReport is the full battery outcome. It annotates, never
// removes: capping is a separate explicit mutation on the profile.
type ValidationReport struct {
	Symbol     string           `json:"symbol"`
	Categories []CategoryResult `json:"categories"`
}

// Category returns the named category result, or nil.
func (r *ValidationReport) Category(name string) *CategoryResult {
	for i := range r.Categories {
		if r.Categories[i].Category == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// Passed reports whether every category passed.
func (r *ValidationReport) Passed() bool {
	for _, c := range r.Categories {
		if !c.Passed {
			return false
		}
	}
	return true
}

// IssueCount totals hard issues across categories.
func (r *ValidationReport) IssueCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Issues)
	}
	return n
}

// WarningCount totals warnings across categories.
func (r *ValidationReport) WarningCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Warnings)
	}
	return n
}
