package usecase

import (
	"context"
	"sync"
	"time"

	"storegate/internal/domain"
)

const (
	defaultPositiveTTL = 4 * time.Hour
	defaultNegativeTTL = 30 * time.Second
)

// DomainChecker is the cache-plus-deduplicator in front of the authority.
// A fresh cache entry wins; otherwise callers collapse onto a single
// in-flight authority call per domain, and the result is stored with an
// outcome-dependent TTL: long for a fully trusted license, short for
// everything else so a false deny never sticks.
type DomainChecker struct {
	Authority   Authority
	Cache       VerificationCache
	Audit       *AuditEmitter
	PositiveTTL time.Duration
	NegativeTTL time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCheck
}

type pendingCheck struct {
	done   chan struct{}
	result domain.VerificationResult
}

// GetOrFetch returns the cached verification result for the domain, or
// performs (or joins) a single authority call.
func (c *DomainChecker) GetOrFetch(ctx context.Context, rawDomain string) (domain.VerificationResult, error) {
	return c.lookup(ctx, rawDomain, false, domain.CheckSourceGate)
}

// Refresh behaves like GetOrFetch but skips the cache read, forcing a real
// authority round-trip. The background guard uses it: its whole purpose is to
// notice revocation before the positive TTL would.
func (c *DomainChecker) Refresh(ctx context.Context, rawDomain string, source domain.CheckSource) (domain.VerificationResult, error) {
	return c.lookup(ctx, rawDomain, true, source)
}

// Invalidate drops the cached entry for the domain, e.g. after setup
// completion changed the license state at the authority.
func (c *DomainChecker) Invalidate(ctx context.Context, rawDomain string) error {
	key := domain.NormalizeDomain(rawDomain)
	if key == "" {
		return domain.ErrDomainRequired
	}
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Del(ctx, key)
}

func (c *DomainChecker) lookup(ctx context.Context, rawDomain string, bypassCache bool, source domain.CheckSource) (domain.VerificationResult, error) {
	key := domain.NormalizeDomain(rawDomain)
	if key == "" {
		return domain.VerificationResult{}, domain.ErrDomainRequired
	}

	if !bypassCache && c.Cache != nil {
		if cached, ok, err := c.Cache.Get(ctx, key); err == nil && ok && cached != nil {
			return *cached, nil
		}
	}

	pending, leader := c.join(key)
	if !leader {
		select {
		case <-pending.done:
			return pending.result, nil
		case <-ctx.Done():
			// The leader's call keeps running; only this waiter gives up.
			return domain.VerificationResult{}, ctx.Err()
		}
	}

	result := c.Authority.Check(ctx, key)
	c.release(key, pending, result)

	if c.Cache != nil {
		// Best effort: a failed cache write only costs an extra call later.
		_ = c.Cache.Put(ctx, key, result, c.ttlFor(result))
	}
	if c.Audit != nil {
		c.Audit.RecordCheck(ctx, result, source)
	}
	return result, nil
}

// join registers interest in the domain's in-flight check. The first caller
// becomes the leader and owns the authority call.
func (c *DomainChecker) join(key string) (*pendingCheck, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		c.pending = make(map[string]*pendingCheck)
	}
	if p, ok := c.pending[key]; ok {
		return p, false
	}
	p := &pendingCheck{done: make(chan struct{})}
	c.pending[key] = p
	return p, true
}

// release publishes the result to waiters and clears the pending slot. It
// runs on every leader exit path.
func (c *DomainChecker) release(key string, p *pendingCheck, result domain.VerificationResult) {
	c.mu.Lock()
	p.result = result
	delete(c.pending, key)
	c.mu.Unlock()
	close(p.done)
}

func (c *DomainChecker) ttlFor(result domain.VerificationResult) time.Duration {
	if result.Trusted() {
		if c.PositiveTTL > 0 {
			return c.PositiveTTL
		}
		return defaultPositiveTTL
	}
	if c.NegativeTTL > 0 {
		return c.NegativeTTL
	}
	return defaultNegativeTTL
}
