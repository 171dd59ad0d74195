package threatintel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidURL indicates the visited URL carries no hostname.
	ErrInvalidURL = errors.New("invalid url: no hostname")
	// ErrResolutionFailed indicates DNS resolution failed for a domain.
	// Callers treat this as "cannot consult the IP reputation source" and
	// continue, never as a fatal pipeline error.
	ErrResolutionFailed = errors.New("dns resolution failed")
)

// ExtractDomain parses a URL and returns its lower-cased hostname.
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return strings.ToLower(host), nil
}

// Resolver resolves domains to IP addresses with a bounded timeout.
type Resolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewResolver returns a Resolver using the system DNS configuration.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{resolver: net.DefaultResolver, timeout: timeout}
}

// ResolveIP returns the first address resolved for the domain, regardless of
// address family.
func (r *Resolver) ResolveIP(ctx context.Context, domain string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupIPAddr(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResolutionFailed, domain, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("%w: %s: empty answer", ErrResolutionFailed, domain)
	}
	return addrs[0].IP.String(), nil
}
