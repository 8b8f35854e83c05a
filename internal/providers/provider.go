// Package providers wraps each external data source behind one capability
// contract so the orchestrator can treat them uniformly.
package providers

import (
	"context"
	"errors"

	"github.com/sawpanic/equityrecon/internal/domain"
)

// Provider is the adapter contract. GetMetrics never errors for "ticker not
// found" or "quota exhausted": both come back as (nil, nil). Only a
// configuration failure (bad credential, bad DSN) is an error, and the
// adapter trips its own breaker permanently before returning it.
type Provider interface {
	Name() domain.SourceTag
	IsAvailable() bool
	GetMetrics(ctx context.Context, t domain.Ticker) (*domain.SourceSnapshot, error)
	GetPriceHistory(ctx context.Context, t domain.Ticker, period string) ([]domain.PricePoint, error)
}

// ErrConfiguration marks credential/setup failures. Adapters wrap it; the
// orchestrator still maps it to "no contribution".
var ErrConfiguration = errors.New("provider configuration error")

// Registry holds the adapters registered at startup.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry over a fixed adapter set.
func NewRegistry(ps ...Provider) *Registry {
	return &Registry{providers: ps}
}

// Register appends one adapter.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// All returns every registered adapter.
func (r *Registry) All() []Provider {
	return r.providers
}

// Available returns adapters currently reporting availability. An
// unavailable adapter is simply absent from the fetch set for the call.
func (r *Registry) Available() []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

// Get returns a registered adapter by tag, or nil.
func (r *Registry) Get(tag domain.SourceTag) Provider {
	for _, p := range r.providers {
		if p.Name() == tag {
			return p
		}
	}
	return nil
}
