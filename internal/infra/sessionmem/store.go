package sessionmem

import (
	"context"
	"sync"

	"storegate/internal/domain"
	"storegate/internal/usecase"
)

// Store keeps per-domain trust state in process memory. Tests and single
// worker deployments use it directly; multi-worker edges use the redis
// variant behind the same interface.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]domain.Session
	graces    map[string]domain.GracePeriod
	navGraces map[string]domain.NavigationGrace
}

func New() *Store {
	return &Store{
		sessions:  make(map[string]domain.Session),
		graces:    make(map[string]domain.GracePeriod),
		navGraces: make(map[string]domain.NavigationGrace),
	}
}

func (s *Store) GetSession(ctx context.Context, dom string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

func (s *Store) PutSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Domain] = session
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, dom)
	return nil
}

func (s *Store) GetGrace(ctx context.Context, dom string) (*domain.GracePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grace, ok := s.graces[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &grace, nil
}

func (s *Store) PutGrace(ctx context.Context, grace domain.GracePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graces[grace.Domain] = grace
	return nil
}

func (s *Store) DeleteGrace(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.graces, dom)
	return nil
}

func (s *Store) GetNavigationGrace(ctx context.Context, dom string) (*domain.NavigationGrace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grace, ok := s.navGraces[dom]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &grace, nil
}

func (s *Store) PutNavigationGrace(ctx context.Context, grace domain.NavigationGrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navGraces[grace.Domain] = grace
	return nil
}

func (s *Store) DeleteNavigationGrace(ctx context.Context, dom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.navGraces, dom)
	return nil
}

var _ usecase.TrustStore = (*Store)(nil)
