package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/metrics"
)

// AggregatorAdapter scrapes a public metrics aggregator. No credential, a
// lower tier, and a habit of quoting London names in pence: exactly the
// source the merge scale correction exists for.
type AggregatorAdapter struct {
	guard      *Guard
	baseURL    string
	httpClient *http.Client
}

type aggregatorQuote struct {
	CompanyName string             `json:"company_name"`
	Currency    string             `json:"currency"`
	LastPrice   *float64           `json:"last_price"`
	CapMillions *float64           `json:"cap_millions"`
	Shares      *float64           `json:"shares"`
	Ratios      map[string]float64 `json:"ratios"`
	Updated     string             `json:"updated"`
}

// aggregatorRatioFields maps the aggregator's ratio keys onto the catalog.
var aggregatorRatioFields = map[string]domain.FieldName{
	"pe_ttm":         domain.FieldTrailingPE,
	"pe_fwd":         domain.FieldForwardPE,
	"peg":            domain.FieldPEG,
	"pb":             domain.FieldPriceToBook,
	"roe":            domain.FieldROE,
	"roa":            domain.FieldROA,
	"gross_margin":   domain.FieldGrossMargin,
	"op_margin":      domain.FieldOpMargin,
	"net_margin":     domain.FieldNetMargin,
	"de":             domain.FieldDebtEquity,
	"current":        domain.FieldCurrentRat,
	"quick":          domain.FieldQuickRatio,
	"rev_growth":     domain.FieldRevGrowth,
	"eps_growth":     domain.FieldEPSGrowth,
	"dividend_yield": domain.FieldDividendYld,
}

// NewAggregatorAdapter builds the aggregator adapter.
func NewAggregatorAdapter(cfg config.ProviderConfig, m *metrics.Collector) *AggregatorAdapter {
	timeout := cfg.Timeout()
	return &AggregatorAdapter{
		guard:      NewGuard(string(domain.SourceAggregator), cfg, m),
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *AggregatorAdapter) Name() domain.SourceTag { return domain.SourceAggregator }

func (a *AggregatorAdapter) IsAvailable() bool { return a.guard.Available() }

// GetMetrics scrapes the aggregator's quote document.
func (a *AggregatorAdapter) GetMetrics(ctx context.Context, t domain.Ticker) (*domain.SourceSnapshot, error) {
	url := fmt.Sprintf("%s/quote?symbol=%s", a.baseURL, t.Symbol)
	res, err := a.guard.Do(ctx, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("aggregator request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("aggregator body read failed: %w", err)
		}
		return &httpResult{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		log.Warn().Str("provider", "aggregator").Str("symbol", t.Symbol).Err(err).
			Msg("Guarded request failed")
		return nil, nil
	}
	r := res.(*httpResult)
	if r.status != http.StatusOK {
		if r.status != http.StatusNotFound {
			log.Warn().Str("symbol", t.Symbol).Int("status", r.status).
				Msg("Aggregator returned non-OK status")
		}
		return nil, nil
	}

	var q aggregatorQuote
	if err := json.Unmarshal(r.body, &q); err != nil {
		log.Warn().Str("symbol", t.Symbol).Err(err).Msg("Aggregator response unparseable")
		return nil, nil
	}

	snap := domain.NewSnapshot(domain.SourceAggregator, t.Symbol)
	if q.CompanyName != "" {
		snap.Set(domain.FieldCompanyName, q.CompanyName)
	}
	if q.Currency != "" {
		snap.Set(domain.FieldCurrency, q.Currency)
	}
	setFloat(snap, domain.FieldPrice, q.LastPrice)
	if q.CapMillions != nil {
		snap.Set(domain.FieldMarketCap, *q.CapMillions*1e6)
	}
	setFloat(snap, domain.FieldShares, q.Shares)
	for key, field := range aggregatorRatioFields {
		if v, ok := q.Ratios[key]; ok {
			snap.Set(field, v)
		}
	}
	setTime(snap, domain.FieldEarningsTS, q.Updated)

	if snap.IsEmpty() {
		return nil, nil
	}
	return snap, nil
}

// GetPriceHistory is unsupported by the aggregator.
func (a *AggregatorAdapter) GetPriceHistory(ctx context.Context, t domain.Ticker, period string) ([]domain.PricePoint, error) {
	return nil, nil
}
