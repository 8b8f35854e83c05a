// Package fetch runs one bounded request per enabled adapter and collects
// whatever came back.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/metrics"
	"github.com/sawpanic/equityrecon/internal/providers"
)

// Orchestrator fans out across adapters with a per-source timeout and waits
// for the slowest bounded call. Partial data beats partial coverage, so
// nothing is cancelled early and nothing races to first-wins.
type Orchestrator struct {
	registry *providers.Registry
	timeout  time.Duration
	metrics  *metrics.Collector
}

// New builds an orchestrator over the registry.
func New(registry *providers.Registry, perSourceTimeout time.Duration, m *metrics.Collector) *Orchestrator {
	if perSourceTimeout <= 0 {
		perSourceTimeout = 15 * time.Second
	}
	return &Orchestrator{registry: registry, timeout: perSourceTimeout, metrics: m}
}

// FetchAll queries every available adapter concurrently. Absent, timed-out
// and erroring adapters simply do not appear in the result; the map holds
// only real contributions. Each adapter writes only its own snapshot, so
// the fetch phase needs no locking beyond the collection step.
func (o *Orchestrator) FetchAll(ctx context.Context, t domain.Ticker) map[domain.SourceTag]*domain.SourceSnapshot {
	available := o.registry.Available()
	results := make(map[domain.SourceTag]*domain.SourceSnapshot, len(available))
	if len(available) == 0 {
		log.Warn().Str("symbol", t.Symbol).Msg("No adapters available")
		return results
	}

	type outcome struct {
		source domain.SourceTag
		snap   *domain.SourceSnapshot
	}
	ch := make(chan outcome, len(available))

	var wg sync.WaitGroup
	for _, p := range available {
		wg.Add(1)
		go func(p providers.Provider) {
			defer wg.Done()
			ch <- outcome{source: p.Name(), snap: o.fetchOne(ctx, p, t)}
		}(p)
	}
	wg.Wait()
	close(ch)

	for out := range ch {
		if !out.snap.IsEmpty() {
			results[out.source] = out.snap
		}
	}

	log.Info().Str("symbol", t.Symbol).
		Int("adapters", len(available)).
		Int("contributed", len(results)).
		Msg("Fetch phase complete")
	return results
}

// fetchOne bounds one adapter call. Every failure mode maps to nil: a
// timeout is a soft failure, never a caller-visible error.
func (o *Orchestrator) fetchOne(ctx context.Context, p providers.Provider, t domain.Ticker) *domain.SourceSnapshot {
	source := string(p.Name())
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	snap, err := p.GetMetrics(cctx, t)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		o.metrics.ObserveFetch(source, "error", elapsed)
		log.Warn().Str("provider", source).Str("symbol", t.Symbol).Err(err).
			Msg("Adapter failed, treating as no contribution")
		return nil
	case cctx.Err() != nil:
		o.metrics.ObserveFetch(source, "timeout", elapsed)
		log.Warn().Str("provider", source).Str("symbol", t.Symbol).
			Dur("elapsed", elapsed).Msg("Adapter timed out")
		return nil
	case snap.IsEmpty():
		o.metrics.ObserveFetch(source, "absent", elapsed)
		log.Debug().Str("provider", source).Str("symbol", t.Symbol).
			Msg("Adapter returned no data")
		return nil
	}
	o.metrics.ObserveFetch(source, "ok", elapsed)
	log.Debug().Str("provider", source).Str("symbol", t.Symbol).
		Int("fields", len(snap.Fields)).Dur("elapsed", elapsed).
		Msg("Adapter contributed")
	return snap
}
