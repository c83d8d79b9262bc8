package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainMu sync.RWMutex

	// QuoteRequestsTotal counts pricing operations by outcome.
	QuoteRequestsTotal *prometheus.CounterVec
	// QuoteTotalAmount records quoted totals in whole currency units.
	QuoteTotalAmount prometheus.Histogram
	// RateReloadsTotal counts rate table reload attempts.
	RateReloadsTotal *prometheus.CounterVec
	// RatesVersionInfo is 1 for the active rate tables version.
	RatesVersionInfo *prometheus.GaugeVec
	// CatalogLookupDuration records product lookup latency in milliseconds.
	CatalogLookupDuration *prometheus.HistogramVec
	// BreakerState is 0 closed, 1 open, 2 half-open per breaker target.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts breaker state changes.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// collectors. Calling it again re-binds the package collectors to reg.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	domainMu.Lock()
	defer domainMu.Unlock()

	QuoteRequestsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quote_requests_total",
		Help:      "Count of pricing operations by operation and result.",
	}, []string{"operation", "result"}))
	QuoteTotalAmount = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quote_total_amount",
		Help:      "Distribution of quoted order totals in whole currency units.",
		Buckets:   prometheus.ExponentialBuckets(500, 4, 9),
	}))
	RateReloadsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_reloads_total",
		Help:      "Count of rate table reload attempts by result.",
	}, []string{"result"}))
	RatesVersionInfo = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rates_version_info",
		Help:      "Set to 1 for the active rate tables version.",
	}, []string{"version"}))
	CatalogLookupDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_lookup_duration_ms",
		Help:      "Latency of product lookups in milliseconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"source", "result"}))
	BreakerState = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"}))
	BreakerTransitions = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaker_transition_total",
		Help:      "Count of breaker state transitions.",
	}, []string{"target", "from", "to"}))
}

// RecordQuote counts a pricing operation and, for successful price quotes,
// observes the total.
func RecordQuote(operation, result string, total float64) {
	domainMu.RLock()
	defer domainMu.RUnlock()
	if QuoteRequestsTotal != nil {
		QuoteRequestsTotal.WithLabelValues(operation, result).Inc()
	}
	if QuoteTotalAmount != nil && result == "ok" && total > 0 {
		QuoteTotalAmount.Observe(total)
	}
}

// RecordRateReload counts a reload attempt. A non-empty version becomes the
// single active series of RatesVersionInfo.
func RecordRateReload(result, version string) {
	domainMu.RLock()
	defer domainMu.RUnlock()
	if RateReloadsTotal != nil {
		RateReloadsTotal.WithLabelValues(result).Inc()
	}
	if version != "" {
		setRatesVersion(version)
	}
}

// SetRatesVersion marks version as the active rate tables version.
func SetRatesVersion(version string) {
	domainMu.RLock()
	defer domainMu.RUnlock()
	setRatesVersion(version)
}

func setRatesVersion(version string) {
	if RatesVersionInfo == nil {
		return
	}
	RatesVersionInfo.Reset()
	RatesVersionInfo.WithLabelValues(version).Set(1)
}

// ObserveCatalogLookup records a product lookup duration in milliseconds.
func ObserveCatalogLookup(source, result string, millis float64) {
	domainMu.RLock()
	defer domainMu.RUnlock()
	if CatalogLookupDuration != nil {
		CatalogLookupDuration.WithLabelValues(source, result).Observe(millis)
	}
}

// RecordBreakerState publishes the state gauge for a breaker target and, when
// from differs from to, counts the transition.
func RecordBreakerState(target, from, to string, gauge float64) {
	domainMu.RLock()
	defer domainMu.RUnlock()
	if BreakerState != nil {
		BreakerState.WithLabelValues(target).Set(gauge)
	}
	if BreakerTransitions != nil && from != to {
		BreakerTransitions.WithLabelValues(target, from, to).Inc()
	}
}
