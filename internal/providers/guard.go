package providers

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/metrics"
)

// Guard wraps an adapter's outbound calls with a rate limiter and a circuit
// breaker. A breaker trip from transient failures heals on gobreaker's own
// schedule; an authentication trip is permanent for the process lifetime.
type Guard struct {
	name     string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Collector
	disabled atomic.Bool
	reason   atomic.Value // string
}

// NewGuard builds a guard from provider config. Zero RPS means unlimited.
// The collector may be nil.
func NewGuard(name string, cfg config.ProviderConfig, m *metrics.Collector) *Guard {
	g := &Guard{name: name, metrics: m}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	cc := cfg.Circuit
	if cc.ConsecutiveFailures == 0 {
		cc.ConsecutiveFailures = 3
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cc.MaxRequests,
		Interval:    cc.Interval(),
		Timeout:     cc.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cc.ConsecutiveFailures
		},
		OnStateChange: func(n string, from, to gobreaker.State) {
			g.metrics.SetBreakerOpen(n, to == gobreaker.StateOpen)
			log.Warn().Str("provider", n).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Provider circuit state changed")
		},
	})
	return g
}

// Available reports whether calls may proceed: not permanently disabled and
// breaker not open.
func (g *Guard) Available() bool {
	return !g.disabled.Load() && g.breaker.State() != gobreaker.StateOpen
}

// DisablePermanently trips the guard for the process lifetime. Used for
// authentication/configuration failures which a retry cannot fix.
func (g *Guard) DisablePermanently(reason string) {
	if g.disabled.CompareAndSwap(false, true) {
		g.reason.Store(reason)
		log.Error().Str("provider", g.name).Str("reason", reason).
			Msg("Provider permanently disabled")
	}
}

// Disabled reports the permanent-trip state and its reason.
func (g *Guard) Disabled() (bool, string) {
	if !g.disabled.Load() {
		return false, ""
	}
	reason, _ := g.reason.Load().(string)
	return true, reason
}

// Do runs fn behind the limiter and breaker.
func (g *Guard) Do(ctx context.Context, fn func() (any, error)) (any, error) {
	if g.disabled.Load() {
		return nil, fmt.Errorf("provider %s: %w: permanently disabled", g.name, ErrConfiguration)
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("provider %s: rate limiter wait: %w", g.name, err)
		}
	}
	return g.breaker.Execute(func() (interface{}, error) { return fn() })
}
