package usecase

import (
	"context"
	"sync"
	"time"

	"storegate/internal/domain"
)

type countingAuthority struct {
	mu      sync.Mutex
	calls   int
	block   chan struct{}
	started chan struct{}
	result  domain.VerificationResult
}

func (a *countingAuthority) Check(ctx context.Context, dom string) domain.VerificationResult {
	a.mu.Lock()
	a.calls++
	started := a.started
	a.started = nil
	a.mu.Unlock()
	if started != nil {
		close(started)
	}
	if a.block != nil {
		<-a.block
	}
	result := a.result
	result.Domain = dom
	return result
}

func (a *countingAuthority) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type trackingCache struct {
	mu      sync.Mutex
	entries map[string]domain.VerificationResult
	ttls    map[string]time.Duration
	gets    int
	puts    int
	dels    []string
	getErr  error
}

func newTrackingCache() *trackingCache {
	return &trackingCache{
		entries: make(map[string]domain.VerificationResult),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *trackingCache) Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	value := entry
	return &value, true, nil
}

func (c *trackingCache) Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *trackingCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	delete(c.entries, key)
	delete(c.ttls, key)
	return nil
}

type memoryTrustStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	graces   map[string]domain.GracePeriod
	navs     map[string]domain.NavigationGrace
}

func newMemoryTrustStore() *memoryTrustStore {
	return &memoryTrustStore{
		sessions: make(map[string]domain.Session),
		graces:   make(map[string]domain.GracePeriod),
		navs:     make(map[string]domain.NavigationGrace),
	}
}

func (s *memoryTrustStore) GetSession(ctx context.Context, dom string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

func (s *memoryTrustStore) PutSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Domain] = session
	return nil
}

func (s *memoryTrustStore) DeleteSession(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, dom)
	return nil
}

func (s *memoryTrustStore) GetGrace(ctx context.Context, dom string) (*domain.GracePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grace, ok := s.graces[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &grace, nil
}

func (s *memoryTrustStore) PutGrace(ctx context.Context, grace domain.GracePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graces[grace.Domain] = grace
	return nil
}

func (s *memoryTrustStore) DeleteGrace(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.graces, dom)
	return nil
}

func (s *memoryTrustStore) GetNavigationGrace(ctx context.Context, dom string) (*domain.NavigationGrace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nav, ok := s.navs[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &nav, nil
}

func (s *memoryTrustStore) PutNavigationGrace(ctx context.Context, grace domain.NavigationGrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navs[grace.Domain] = grace
	return nil
}

func (s *memoryTrustStore) DeleteNavigationGrace(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.navs, dom)
	return nil
}

func (s *memoryTrustStore) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type trackingMirror struct {
	mu      sync.Mutex
	upserts []domain.Session
	deletes []string
}

func (m *trackingMirror) Upsert(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, session)
	return nil
}

func (m *trackingMirror) Delete(ctx context.Context, dom string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, dom)
	return nil
}

type staticClassifier struct {
	class domain.RouteClass
	err   error
}

func (c *staticClassifier) Classify(ctx context.Context, path string) (domain.RouteClass, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.class, nil
}

func trustedResult(dom string) domain.VerificationResult {
	return domain.VerificationResult{
		Domain:           dom,
		Valid:            true,
		GloballyVerified: true,
		Reason:           domain.ReasonOK,
		CheckedAt:        time.Now(),
	}
}

func failedResult(dom string, reason domain.ReasonCode) domain.VerificationResult {
	return domain.VerificationResult{
		Domain:    dom,
		Reason:    reason,
		CheckedAt: time.Now(),
	}
}
