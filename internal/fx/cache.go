// Package fx caches currency conversion rates. It is the only state that
// outlives a single reconciliation call.
package fx

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/currency"
)

// RateCache answers currency pair lookups. ok=false means the caller should
// fall back to the static table, never that something went wrong.
type RateCache interface {
	GetRate(from, to string) (float64, bool)
	SetRate(from, to string, rate float64)
}

// StaticFallback holds coarse rates used when the cache has nothing. Values
// are deliberately conservative snapshots, not live data.
var StaticFallback = map[string]float64{
	"GBP/USD": 1.27,
	"EUR/USD": 1.08,
	"JPY/USD": 0.0067,
	"CHF/USD": 1.13,
	"CAD/USD": 0.73,
	"AUD/USD": 0.66,
	"HKD/USD": 0.128,
	"USD/USD": 1.0,
}

// PairKey normalizes and validates a currency pair. Unknown ISO codes are
// an error so a typo never becomes a silently wrong conversion.
func PairKey(from, to string) (string, error) {
	f, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(from)))
	if err != nil {
		return "", fmt.Errorf("bad currency %q: %w", from, err)
	}
	t, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(to)))
	if err != nil {
		return "", fmt.Errorf("bad currency %q: %w", to, err)
	}
	return f.String() + "/" + t.String(), nil
}

// Fallback consults the static table, inverting the pair when only the
// reverse direction is listed.
func Fallback(from, to string) (float64, bool) {
	key, err := PairKey(from, to)
	if err != nil {
		return 0, false
	}
	if r, ok := StaticFallback[key]; ok {
		return r, true
	}
	rev, err := PairKey(to, from)
	if err != nil {
		return 0, false
	}
	if r, ok := StaticFallback[rev]; ok && r != 0 {
		return 1 / r, true
	}
	return 0, false
}

type entry struct {
	rate    float64
	expires time.Time
}

// MemoryCache is the default in-process TTL cache. Writers racing on the
// same pair compute the same value inside the TTL window, so last-writer-
// wins is fine; the mutex only protects the map itself.
type MemoryCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache returns a TTL cache; entries older than ttl read as absent.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetRate returns a cached rate, treating expired entries as absent.
func (c *MemoryCache) GetRate(from, to string) (float64, bool) {
	key, err := PairKey(from, to)
	if err != nil {
		return 0, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return 0, false
	}
	return e.rate, true
}

// SetRate stores a rate with the cache's TTL. Invalid pairs are dropped.
func (c *MemoryCache) SetRate(from, to string, rate float64) {
	key, err := PairKey(from, to)
	if err != nil || rate <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{rate: rate, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len reports live (unexpired) entries; used by cache stats.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}
