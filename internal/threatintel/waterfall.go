package threatintel

import (
	"context"
	"time"

	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/metrics"
)

// DomainChecker is a reputation source keyed by domain.
type DomainChecker interface {
	Check(ctx context.Context, domain string) Verdict
}

// IPChecker is a reputation source keyed by a resolved IP.
type IPChecker interface {
	Check(ctx context.Context, domain, ip string) Verdict
}

// IPResolver resolves a domain to one IP address.
type IPResolver interface {
	ResolveIP(ctx context.Context, domain string) (string, error)
}

// Waterfall consults the verdict cache and then the reputation sources in a
// fixed order: scan index, IOC feed, IP reputation. The first positive result
// is terminal and is what gets cached, so every cache entry traces back to
// exactly one originating check.
type Waterfall struct {
	cache    VerdictCache
	scan     DomainChecker
	ioc      DomainChecker
	ipRep    IPChecker
	resolver IPResolver
	ttl      time.Duration
}

// NewWaterfall wires the classification pipeline.
func NewWaterfall(cache VerdictCache, scan, ioc DomainChecker, ipRep IPChecker, resolver IPResolver, ttl time.Duration) *Waterfall {
	return &Waterfall{
		cache:    cache,
		scan:     scan,
		ioc:      ioc,
		ipRep:    ipRep,
		resolver: resolver,
		ttl:      ttl,
	}
}

// Classify returns a reputation verdict for the domain. It never fails: cache
// and source errors degrade into a best-effort verdict.
func (w *Waterfall) Classify(ctx context.Context, domain string) Verdict {
	cached, err := w.cache.Get(ctx, domain)
	if err != nil {
		logger.WithFields(map[string]interface{}{"domain": domain}).WithError(err).Warn("verdict cache read failed")
	}
	if cached != nil {
		metrics.IncCacheHit()
		return Verdict{Domain: domain, Malicious: cached.Malicious, Info: cached.Info, Source: SourceCache}
	}

	metrics.IncSourceLookup()
	if verdict := w.scan.Check(ctx, domain); verdict.Malicious {
		w.store(ctx, verdict)
		return verdict
	}

	metrics.IncSourceLookup()
	if verdict := w.ioc.Check(ctx, domain); verdict.Malicious {
		w.store(ctx, verdict)
		return verdict
	}

	ip, err := w.resolver.ResolveIP(ctx, domain)
	if err != nil {
		logger.WithFields(map[string]interface{}{"domain": domain}).WithError(err).Debug("skipping IP reputation source")
		verdict := Verdict{Domain: domain, Malicious: false, Source: SourceNoSignal,
			Info: "Could not resolve an IP for the domain; IP reputation not consulted"}
		w.store(ctx, verdict)
		return verdict
	}

	metrics.IncSourceLookup()
	if verdict := w.ipRep.Check(ctx, domain, ip); verdict.Malicious {
		w.store(ctx, verdict)
		return verdict
	}

	verdict := Verdict{Domain: domain, Malicious: false, Source: SourceNoSignal,
		Info: "No danger signals found in consulted sources"}
	w.store(ctx, verdict)
	return verdict
}

func (w *Waterfall) store(ctx context.Context, v Verdict) {
	if err := w.cache.Put(ctx, v.Domain, v.Malicious, v.Info, w.ttl); err != nil {
		logger.WithFields(map[string]interface{}{"domain": v.Domain}).WithError(err).Warn("verdict cache write failed")
	}
}
