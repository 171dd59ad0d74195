package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	checksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safewaters_url_checks_total",
		Help: "Total number of URL evaluations performed by the decision engine",
	})
	blockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safewaters_url_blocked_total",
		Help: "Total number of URLs blocked by a profile rule",
	})
	maliciousTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safewaters_url_malicious_total",
		Help: "Total number of URLs flagged malicious by a threat source",
	})
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safewaters_verdict_cache_hits_total",
		Help: "Total number of reputation verdicts served from cache",
	})
	sourceLookupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safewaters_source_lookups_total",
		Help: "Total number of external threat source lookups",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(checksTotal, blockedTotal, maliciousTotal, cacheHitsTotal, sourceLookupsTotal)
}

// IncCheck increments the evaluated URLs counter.
func IncCheck() { checksTotal.Inc() }

// IncBlocked increments the rule-blocked counter.
func IncBlocked() { blockedTotal.Inc() }

// IncMalicious increments the malicious verdict counter.
func IncMalicious() { maliciousTotal.Inc() }

// IncCacheHit increments the verdict cache hit counter.
func IncCacheHit() { cacheHitsTotal.Inc() }

// IncSourceLookup increments the external lookup counter.
func IncSourceLookup() { sourceLookupsTotal.Inc() }
