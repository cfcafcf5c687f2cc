// Package metrics exports verification events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "verifier"

// CacheStats is implemented by caches that count hits and misses.
type CacheStats interface {
	Stats() (hits, misses uint64)
	Len() int
}

// Metrics collects verification metrics. It implements settlement.Observer.
type Metrics struct {
	verifications *prometheus.CounterVec
	duration      prometheus.Histogram
	rings         *prometheus.CounterVec
	feePayments   prometheus.Counter
	invalidOrders *prometheus.CounterVec

	factory promauto.Factory
	ns      string
}

var _ settlement.Observer = (*Metrics)(nil)

// New registers the verification collectors on reg under namespace.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verifications_total",
				Help:      "Total batch verifications by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verification_duration_seconds",
				Help:      "Duration of batch verifications",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		rings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rings_total",
				Help:      "Total rings seen during verification",
			},
			[]string{"status"},
		),
		feePayments: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fee_payments_total",
				Help:      "Total simulated fee payments",
			},
		),
		invalidOrders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invalid_orders_total",
				Help:      "Total orders rejected during batch preparation",
			},
			[]string{"reason"},
		),
		factory: factory,
		ns:      namespace,
	}
}

// ObserveVerification implements settlement.Observer.
func (m *Metrics) ObserveVerification(outcome string, elapsed time.Duration) {
	m.verifications.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveRing implements settlement.Observer.
func (m *Metrics) ObserveRing(failed bool) {
	status := "settled"
	if failed {
		status = "failed"
	}
	m.rings.WithLabelValues(status).Inc()
}

// ObserveFeePayments implements settlement.Observer.
func (m *Metrics) ObserveFeePayments(n int) {
	m.feePayments.Add(float64(n))
}

// ObserveInvalidOrder implements settlement.Observer.
func (m *Metrics) ObserveInvalidOrder(reason string) {
	m.invalidOrders.WithLabelValues(reason).Inc()
}

// RegisterBurnRateCache exports the hit and miss counts of a burn-rate cache.
func (m *Metrics) RegisterBurnRateCache(cache CacheStats) {
	m.factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: m.ns,
			Subsystem: "burnrate_cache",
			Name:      "hits_total",
			Help:      "Burn-rate lookups served from the cache",
		},
		func() float64 {
			hits, _ := cache.Stats()
			return float64(hits)
		},
	)
	m.factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: m.ns,
			Subsystem: "burnrate_cache",
			Name:      "misses_total",
			Help:      "Burn-rate lookups forwarded to the chain state",
		},
		func() float64 {
			_, misses := cache.Stats()
			return float64(misses)
		},
	)
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: m.ns,
			Subsystem: "burnrate_cache",
			Name:      "entries",
			Help:      "Burn rates currently cached",
		},
		func() float64 {
			return float64(cache.Len())
		},
	)
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
