package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrecon/internal/config"
)

func TestWebSearchReturnsSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "ACME dividend yield", r.URL.Query().Get("q"))
		w.Write([]byte(`{"results": [
			{"title": "ACME Corp", "snippet": "dividend yield of 2.3%"},
			{"title": "Stale page", "snippet": ""},
			{"title": "Analysis", "snippet": "payout raised again"}
		]}`))
	}))
	defer srv.Close()

	c := NewWebSearchClient(config.ProviderConfig{BaseURL: srv.URL, TimeoutSecs: 2})
	got, err := c.Search(context.Background(), "ACME dividend yield")
	require.NoError(t, err)
	require.Len(t, got, 2, "empty snippets are dropped")
	assert.Equal(t, "ACME Corp dividend yield of 2.3%", got[0])
}

func TestWebSearchNonOKDegradesToNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWebSearchClient(config.ProviderConfig{BaseURL: srv.URL, TimeoutSecs: 2})
	got, err := c.Search(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestWebSearchTransportFailureDegradesToNothing(t *testing.T) {
	c := NewWebSearchClient(config.ProviderConfig{BaseURL: "http://127.0.0.1:1", TimeoutSecs: 1})
	got, err := c.Search(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, got)
}
