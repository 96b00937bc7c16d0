package sessionredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix  = "storegate:session:"
	gracePrefix    = "storegate:grace:"
	navGracePrefix = "storegate:navgrace:"
)

// Store keeps trust state in redis. Record TTLs mirror the record's own
// expiry, so redis evicts what the lazy purge would have dropped anyway.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

func New(client *redis.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) GetSession(ctx context.Context, dom string) (*domain.Session, error) {
	var session domain.Session
	if err := s.get(ctx, sessionPrefix+dom, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) PutSession(ctx context.Context, session domain.Session) error {
	return s.put(ctx, sessionPrefix+session.Domain, session, session.ExpiresAt)
}

func (s *Store) DeleteSession(ctx context.Context, dom string) error {
	return s.client.Del(ctx, sessionPrefix+dom).Err()
}

func (s *Store) GetGrace(ctx context.Context, dom string) (*domain.GracePeriod, error) {
	var grace domain.GracePeriod
	if err := s.get(ctx, gracePrefix+dom, &grace); err != nil {
		return nil, err
	}
	return &grace, nil
}

func (s *Store) PutGrace(ctx context.Context, grace domain.GracePeriod) error {
	return s.put(ctx, gracePrefix+grace.Domain, grace, grace.ExpiresAt)
}

func (s *Store) DeleteGrace(ctx context.Context, dom string) error {
	return s.client.Del(ctx, gracePrefix+dom).Err()
}

func (s *Store) GetNavigationGrace(ctx context.Context, dom string) (*domain.NavigationGrace, error) {
	var grace domain.NavigationGrace
	if err := s.get(ctx, navGracePrefix+dom, &grace); err != nil {
		return nil, err
	}
	return &grace, nil
}

func (s *Store) PutNavigationGrace(ctx context.Context, grace domain.NavigationGrace) error {
	return s.put(ctx, navGracePrefix+grace.Domain, grace, grace.ExpiresAt)
}

func (s *Store) DeleteNavigationGrace(ctx context.Context, dom string) error {
	return s.client.Del(ctx, navGracePrefix+dom).Err()
}

func (s *Store) get(ctx context.Context, key string, out any) error {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		_ = s.client.Del(ctx, key).Err()
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, value any, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if s.now != nil {
		ttl = expiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return s.client.Del(ctx, key).Err()
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

var _ usecase.TrustStore = (*Store)(nil)
