package domain

// FieldName identifies one metric in a snapshot or merged profile.
type FieldName string

// Canonical field catalog. Values are floats unless noted.
const (
	FieldCompanyName FieldName = "name" // string: long company name
	FieldCurrency    FieldName = "currency"
	FieldPrice       FieldName = "current_price"
	FieldMarketCap   FieldName = "market_cap"
	FieldShares      FieldName = "shares_outstanding"
	FieldTrailingPE  FieldName = "trailing_pe"
	FieldForwardPE   FieldName = "forward_pe"
	FieldPEG         FieldName = "peg_ratio"
	FieldPriceToBook FieldName = "price_to_book"
	FieldEVToEBITDA  FieldName = "ev_to_ebitda"
	FieldROE         FieldName = "roe"
	FieldROA         FieldName = "roa"
	FieldGrossMargin FieldName = "gross_margin"
	FieldOpMargin    FieldName = "operating_margin"
	FieldNetMargin   FieldName = "net_margin"
	FieldDebtEquity  FieldName = "debt_to_equity"
	FieldCurrentRat  FieldName = "current_ratio"
	FieldQuickRatio  FieldName = "quick_ratio"
	FieldRevGrowth   FieldName = "revenue_growth"
	FieldEPSGrowth   FieldName = "eps_growth"
	FieldDividendYld FieldName = "dividend_yield"
	FieldFiscalEnd   FieldName = "last_fiscal_year_end" // time.Time
	FieldEarningsTS  FieldName = "most_recent_quarter"  // time.Time

	// FieldMarketCapUSD is synthesized by currency normalization for
	// cross-market comparability; it never comes from an adapter.
	FieldMarketCapUSD FieldName = "market_cap_usd"
)

// ImportantFields is the fixed list coverage is computed over. Order is
// stable; CoveragePct divides by its length.
var ImportantFields = []FieldName{
	FieldCompanyName,
	FieldPrice,
	FieldCurrency,
	FieldMarketCap,
	FieldShares,
	FieldTrailingPE,
	FieldForwardPE,
	FieldPriceToBook,
	FieldROE,
	FieldROA,
	FieldGrossMargin,
	FieldDebtEquity,
	FieldCurrentRat,
	FieldRevGrowth,
	FieldDividendYld,
}

// BaselineFields are the identity fields whose total absence puts a ticker
// into gap-fill panic mode.
var BaselineFields = []FieldName{FieldCompanyName, FieldPrice, FieldCurrency}

// DangerousFields are never requested from web-search extraction: the cost
// of a confidently extracted wrong value is highest here.
var DangerousFields = map[FieldName]bool{
	FieldPrice:      true,
	FieldTrailingPE: true,
	FieldForwardPE:  true,
	FieldPEG:        true,
	FieldMarketCap:  true,
}

// ScaleSensitiveFields are the price-like fields eligible for minor-unit
// mismatch correction during merge. Deliberately narrow; share counts and
// caps are not rescaled on disagreement.
var ScaleSensitiveFields = map[FieldName]bool{
	FieldPrice: true,
}

// IsTextField reports whether the field carries a string value rather than
// a numeric one.
func IsTextField(f FieldName) bool {
	return f == FieldCompanyName || f == FieldCurrency
}

// IsTimeField reports whether the field carries a timestamp.
func IsTimeField(f FieldName) bool {
	return f == FieldFiscalEnd || f == FieldEarningsTS
}
