package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("ringsim", reg)

	m.ObserveVerification(settlement.OutcomePass, 3*time.Millisecond)
	m.ObserveVerification(settlement.OutcomePass, time.Millisecond)
	m.ObserveVerification(settlement.OutcomeMismatch, time.Millisecond)
	m.ObserveRing(false)
	m.ObserveRing(false)
	m.ObserveRing(true)
	m.ObserveFeePayments(3)
	m.ObserveFeePayments(0)
	m.ObserveInvalidOrder("order is expired")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.verifications.WithLabelValues(settlement.OutcomePass)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues(settlement.OutcomeMismatch)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rings.WithLabelValues("settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rings.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.feePayments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidOrders.WithLabelValues("order is expired")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("ringsim", reg)
	m.ObserveRing(true)

	expected := `
# HELP ringsim_verifier_rings_total Total rings seen during verification
# TYPE ringsim_verifier_rings_total counter
ringsim_verifier_rings_total{status="failed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "ringsim_verifier_rings_total"))
}

type fakeCache struct {
	hits, misses uint64
	entries      int
}

func (f *fakeCache) Stats() (uint64, uint64) { return f.hits, f.misses }
func (f *fakeCache) Len() int                { return f.entries }

func TestBurnRateCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("ringsim", reg)
	cache := &fakeCache{hits: 7, misses: 2, entries: 2}
	m.RegisterBurnRateCache(cache)

	expected := `
# HELP ringsim_burnrate_cache_hits_total Burn-rate lookups served from the cache
# TYPE ringsim_burnrate_cache_hits_total counter
ringsim_burnrate_cache_hits_total 7
# HELP ringsim_burnrate_cache_misses_total Burn-rate lookups forwarded to the chain state
# TYPE ringsim_burnrate_cache_misses_total counter
ringsim_burnrate_cache_misses_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ringsim_burnrate_cache_hits_total", "ringsim_burnrate_cache_misses_total"))

	cache.hits = 8
	count, err := testutil.GatherAndCount(reg, "ringsim_burnrate_cache_entries")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("ringsim", reg)
	m.ObserveFeePayments(2)

	path := filepath.Join(t.TempDir(), "ringsim.prom")
	require.NoError(t, WriteTextfile(path, reg))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ringsim_verifier_fee_payments_total 2")
}
