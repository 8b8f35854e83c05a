package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
)

func aggregatorFor(srv *httptest.Server) *AggregatorAdapter {
	return NewAggregatorAdapter(config.ProviderConfig{
		Enabled:     true,
		BaseURL:     srv.URL,
		TimeoutSecs: 2,
	}, nil)
}

func TestAggregatorGetMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "VOD.L", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"company_name": "Vodafone Group Plc",
			"currency": "GBp",
			"last_price": 72.5,
			"cap_millions": 19240,
			"shares": 2.66e10,
			"ratios": {"pe_ttm": 9.8, "dividend_yield": 0.074, "unknown_key": 1.0},
			"updated": "2026-08-28T16:30:00Z"
		}`))
	}))
	defer srv.Close()

	a := aggregatorFor(srv)
	require.True(t, a.IsAvailable())

	snap, err := a.GetMetrics(context.Background(), testTicker(t, "VOD.L"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, domain.SourceAggregator, snap.Source)

	// Millions normalized to absolute units at the adapter boundary.
	cap, ok := snap.Float(domain.FieldMarketCap)
	require.True(t, ok)
	assert.Equal(t, 19240.0*1e6, cap)

	pe, ok := snap.Float(domain.FieldTrailingPE)
	require.True(t, ok)
	assert.Equal(t, 9.8, pe)

	dy, ok := snap.Float(domain.FieldDividendYld)
	require.True(t, ok)
	assert.Equal(t, 0.074, dy)

	// Ratio keys outside the mapping are ignored, not passed through.
	assert.Len(t, snap.Fields, 8)
}

func TestAggregatorNotFoundIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := aggregatorFor(srv)
	snap, err := a.GetMetrics(context.Background(), testTicker(t, "NOPE"))
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestAggregatorEmptyDocumentIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := aggregatorFor(srv)
	snap, err := a.GetMetrics(context.Background(), testTicker(t, "EMPTY"))
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestAggregatorHasNoPriceHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("price history must not reach the network")
	}))
	defer srv.Close()

	a := aggregatorFor(srv)
	bars, err := a.GetPriceHistory(context.Background(), testTicker(t, "VOD.L"), "1y")
	assert.NoError(t, err)
	assert.Nil(t, bars)
}
