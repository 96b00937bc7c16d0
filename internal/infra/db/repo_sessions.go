package db

import (
	"context"
	"errors"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository mirrors issued sessions to postgres so an edge restart
// does not lose trust that outstanding cookies still prove.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Upsert(ctx context.Context, session domain.Session) error {
	if r.db == nil {
		return domain.ErrStoreUnavailable
	}
	model := SessionModel{
		ID:        session.ID,
		Domain:    session.Domain,
		Verified:  session.Verified,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "verified", "issued_at", "expires_at", "updated_at"}),
	}).Create(&model).Error
}

func (r *SessionRepository) Delete(ctx context.Context, dom string) error {
	if r.db == nil {
		return domain.ErrStoreUnavailable
	}
	return r.db.WithContext(ctx).Where("domain = ?", dom).Delete(&SessionModel{}).Error
}

// Get returns the mirrored session for the domain, if any.
func (r *SessionRepository) Get(ctx context.Context, dom string) (*domain.Session, error) {
	if r.db == nil {
		return nil, domain.ErrStoreUnavailable
	}
	var model SessionModel
	err := r.db.WithContext(ctx).First(&model, "domain = ?", dom).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.Session{
		ID:        model.ID,
		Domain:    model.Domain,
		Verified:  model.Verified,
		IssuedAt:  model.IssuedAt,
		ExpiresAt: model.ExpiresAt,
	}, nil
}

var _ usecase.SessionMirror = (*SessionRepository)(nil)
