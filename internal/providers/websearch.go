package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/equityrecon/internal/config"
)

// SearchClient issues bounded web-search queries for the gap-fill step. It
// is not a Provider: it never joins the primary fetch set.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// WebSearchClient talks to the search endpoint with its own short timeout
// and rate limit.
type WebSearchClient struct {
	baseURL    string
	limiter    *rate.Limiter
	httpClient *http.Client
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// NewWebSearchClient builds the search client from provider config.
func NewWebSearchClient(cfg config.ProviderConfig) *WebSearchClient {
	timeout := cfg.Timeout()
	c := &WebSearchClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

// Search returns result snippets for one query. Timeouts and non-OK
// statuses degrade to no results; gap-fill treats that as "no rescue data".
func (c *WebSearchClient) Search(ctx context.Context, query string) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search rate limiter wait: %w", err)
		}
	}
	u := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("query", query).Err(err).Msg("Search request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Str("query", query).Int("status", resp.StatusCode).Msg("Search returned non-OK status")
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil
	}
	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, nil
	}
	snippets := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.Snippet != "" {
			snippets = append(snippets, r.Title+" "+r.Snippet)
		}
	}
	return snippets, nil
}
