package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector
	// None of these may panic.
	c.ObserveFetch("feed", "ok", time.Second)
	c.ObserveReconcile(time.Second, 0.8)
	c.AddGapFills(3)
	c.MergedField("feed")
	c.SetBreakerOpen("feed", true)
}

func TestCollectorRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveFetch("feed", "ok", 120*time.Millisecond)
	c.ObserveFetch("feed", "timeout", 15*time.Second)
	c.AddGapFills(2)
	c.AddGapFills(0) // ignored
	c.MergedField("aggregator")
	c.ObserveReconcile(800*time.Millisecond, 0.73)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}

	outcomes := byName["equityrecon_fetch_outcomes_total"]
	require.NotNil(t, outcomes)
	assert.Len(t, outcomes.GetMetric(), 2)

	gapfills := byName["equityrecon_gapfill_fields_total"]
	require.NotNil(t, gapfills)
	assert.Equal(t, 2.0, gapfills.GetMetric()[0].GetCounter().GetValue())

	assert.Contains(t, byName, "equityrecon_reconciles_total")
	assert.Contains(t, byName, "equityrecon_fields_merged_total")
}
