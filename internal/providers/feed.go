package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/metrics"
)

// FeedAdapter wraps the professional metrics feed. Highest base tier among
// the network sources.
type FeedAdapter struct {
	guard      *Guard
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// feedMetrics is the feed's wire shape. Pointers keep absent distinct from
// zero.
type feedMetrics struct {
	Name              string   `json:"name"`
	Currency          string   `json:"currency"`
	Price             *float64 `json:"price"`
	MarketCap         *float64 `json:"market_cap"`
	SharesOutstanding *float64 `json:"shares_outstanding"`
	TrailingPE        *float64 `json:"trailing_pe"`
	ForwardPE         *float64 `json:"forward_pe"`
	PEGRatio          *float64 `json:"peg_ratio"`
	PriceToBook       *float64 `json:"price_to_book"`
	EVToEBITDA        *float64 `json:"ev_to_ebitda"`
	ROE               *float64 `json:"roe"`
	ROA               *float64 `json:"roa"`
	GrossMargin       *float64 `json:"gross_margin"`
	OperatingMargin   *float64 `json:"operating_margin"`
	NetMargin         *float64 `json:"net_margin"`
	DebtToEquity      *float64 `json:"debt_to_equity"`
	CurrentRatio      *float64 `json:"current_ratio"`
	QuickRatio        *float64 `json:"quick_ratio"`
	RevenueGrowth     *float64 `json:"revenue_growth"`
	EPSGrowth         *float64 `json:"eps_growth"`
	DividendYield     *float64 `json:"dividend_yield"`
	LastFiscalYearEnd string   `json:"last_fiscal_year_end"` // RFC3339
	MostRecentQuarter string   `json:"most_recent_quarter"`  // RFC3339
}

type feedBar struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// NewFeedAdapter builds the feed adapter. A missing API key leaves the
// adapter registered but unavailable.
func NewFeedAdapter(cfg config.ProviderConfig, m *metrics.Collector) *FeedAdapter {
	timeout := cfg.Timeout()
	return &FeedAdapter{
		guard:      NewGuard(string(domain.SourceFeed), cfg, m),
		baseURL:    cfg.BaseURL,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *FeedAdapter) Name() domain.SourceTag { return domain.SourceFeed }

// IsAvailable requires a credential and a closed breaker.
func (a *FeedAdapter) IsAvailable() bool {
	return a.apiKey != "" && a.guard.Available()
}

// GetMetrics fetches the metrics document. Not-found and quota exhaustion
// are absence, not errors.
func (a *FeedAdapter) GetMetrics(ctx context.Context, t domain.Ticker) (*domain.SourceSnapshot, error) {
	url := fmt.Sprintf("%s/metrics/%s", a.baseURL, t.Symbol)
	body, status, err := a.get(ctx, url)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status == http.StatusTooManyRequests:
		log.Warn().Str("symbol", t.Symbol).Msg("Feed quota exhausted")
		return nil, nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		a.guard.DisablePermanently(fmt.Sprintf("auth rejected with status %d", status))
		return nil, fmt.Errorf("feed auth: %w", ErrConfiguration)
	case status != http.StatusOK:
		log.Warn().Str("symbol", t.Symbol).Int("status", status).Msg("Feed returned non-OK status")
		return nil, nil
	}

	var m feedMetrics
	if err := json.Unmarshal(body, &m); err != nil {
		log.Warn().Str("symbol", t.Symbol).Err(err).Msg("Feed response unparseable")
		return nil, nil
	}

	snap := domain.NewSnapshot(domain.SourceFeed, t.Symbol)
	if m.Name != "" {
		snap.Set(domain.FieldCompanyName, m.Name)
	}
	if m.Currency != "" {
		snap.Set(domain.FieldCurrency, m.Currency)
	}
	setFloat(snap, domain.FieldPrice, m.Price)
	setFloat(snap, domain.FieldMarketCap, m.MarketCap)
	setFloat(snap, domain.FieldShares, m.SharesOutstanding)
	setFloat(snap, domain.FieldTrailingPE, m.TrailingPE)
	setFloat(snap, domain.FieldForwardPE, m.ForwardPE)
	setFloat(snap, domain.FieldPEG, m.PEGRatio)
	setFloat(snap, domain.FieldPriceToBook, m.PriceToBook)
	setFloat(snap, domain.FieldEVToEBITDA, m.EVToEBITDA)
	setFloat(snap, domain.FieldROE, m.ROE)
	setFloat(snap, domain.FieldROA, m.ROA)
	setFloat(snap, domain.FieldGrossMargin, m.GrossMargin)
	setFloat(snap, domain.FieldOpMargin, m.OperatingMargin)
	setFloat(snap, domain.FieldNetMargin, m.NetMargin)
	setFloat(snap, domain.FieldDebtEquity, m.DebtToEquity)
	setFloat(snap, domain.FieldCurrentRat, m.CurrentRatio)
	setFloat(snap, domain.FieldQuickRatio, m.QuickRatio)
	setFloat(snap, domain.FieldRevGrowth, m.RevenueGrowth)
	setFloat(snap, domain.FieldEPSGrowth, m.EPSGrowth)
	setFloat(snap, domain.FieldDividendYld, m.DividendYield)
	setTime(snap, domain.FieldFiscalEnd, m.LastFiscalYearEnd)
	setTime(snap, domain.FieldEarningsTS, m.MostRecentQuarter)

	if snap.IsEmpty() {
		return nil, nil
	}
	return snap, nil
}

// GetPriceHistory fetches daily OHLCV bars for the period.
func (a *FeedAdapter) GetPriceHistory(ctx context.Context, t domain.Ticker, period string) ([]domain.PricePoint, error) {
	url := fmt.Sprintf("%s/history/%s?period=%s", a.baseURL, t.Symbol, period)
	body, status, err := a.get(ctx, url)
	if err != nil || status != http.StatusOK {
		return nil, nil
	}
	var bars []feedBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, nil
	}
	out := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.PricePoint{
			Timestamp: time.Unix(b.Timestamp, 0).UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return out, nil
}

func (a *FeedAdapter) get(ctx context.Context, url string) ([]byte, int, error) {
	res, err := a.guard.Do(ctx, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-API-Key", a.apiKey)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("feed request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("feed body read failed: %w", err)
		}
		return &httpResult{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		log.Warn().Str("provider", "feed").Err(err).Msg("Guarded request failed")
		return nil, 0, nil // transient: no contribution
	}
	r := res.(*httpResult)
	return r.body, r.status, nil
}

type httpResult struct {
	body   []byte
	status int
}

func setFloat(s *domain.SourceSnapshot, f domain.FieldName, v *float64) {
	if v != nil {
		s.Set(f, *v)
	}
}

func setTime(s *domain.SourceSnapshot, f domain.FieldName, raw string) {
	if raw == "" {
		return
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		s.Set(f, ts.UTC())
	}
}
