// Package domain holds the core reconciliation types shared by the fetch,
// merge, gap-fill and validation layers.
package domain

import (
	"fmt"
	"strings"
)

// Ticker is a case-normalized instrument identifier. An optional exchange
// suffix (the part after the last dot, e.g. "VOD.L") determines the default
// quote currency and whether prices arrive in minor units.
type Ticker struct {
	Symbol string `json:"symbol"` // full normalized identifier, e.g. "VOD.L"
	Suffix string `json:"suffix"` // exchange suffix without the dot, e.g. "L"
}

// exchangeCurrency maps exchange suffixes to their default quote currency.
var exchangeCurrency = map[string]string{
	"L":  "GBP",
	"T":  "JPY",
	"HK": "HKD",
	"DE": "EUR",
	"PA": "EUR",
	"AS": "EUR",
	"MI": "EUR",
	"SW": "CHF",
	"TO": "CAD",
	"AX": "AUD",
	"KL": "MYR",
	"JK": "IDR",
	"BK": "THB",
	"KA": "PKR",
	"VN": "VND",
}

// minorUnitExchanges lists suffixes whose venues quote prices in a minor
// unit (pence, not pounds). The classic 100x trap.
var minorUnitExchanges = map[string]bool{
	"L":  true,
	"IL": true,
}

// ParseTicker normalizes a raw identifier. Only truly malformed input is an
// error; an unknown suffix is fine and simply carries no conventions.
func ParseTicker(raw string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Ticker{}, fmt.Errorf("empty ticker")
	}
	if strings.ContainsAny(s, " \t/\\") {
		return Ticker{}, fmt.Errorf("malformed ticker %q", raw)
	}
	t := Ticker{Symbol: s}
	if i := strings.LastIndex(s, "."); i > 0 && i < len(s)-1 {
		t.Suffix = s[i+1:]
	}
	return t, nil
}

// DefaultCurrency returns the exchange's default quote currency, or "" when
// the suffix carries no convention.
func (t Ticker) DefaultCurrency() string {
	return exchangeCurrency[t.Suffix]
}

// QuotedInMinorUnits reports whether the venue quotes prices in a minor
// unit (e.g. GBX instead of GBP).
func (t Ticker) QuotedInMinorUnits() bool {
	return minorUnitExchanges[t.Suffix]
}

func (t Ticker) String() string { return t.Symbol }
