package db

import (
	"context"
	"errors"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"gorm.io/gorm"
)

// CheckAuditRepository appends to the license-check audit trail.
type CheckAuditRepository struct {
	db *gorm.DB
}

func NewCheckAuditRepository(db *gorm.DB) *CheckAuditRepository {
	return &CheckAuditRepository{db: db}
}

func (r *CheckAuditRepository) Append(ctx context.Context, record domain.CheckRecord) error {
	if r.db == nil {
		return domain.ErrStoreUnavailable
	}
	if record.ID == "" {
		return errors.New("audit record id is required")
	}
	model := CheckRecordModel{
		ID:                 record.ID,
		Domain:             record.Domain,
		Valid:              record.Valid,
		GloballyVerified:   record.GloballyVerified,
		Reason:             string(record.Reason),
		SubscriptionStatus: record.SubscriptionStatus,
		SubscriptionEnd:    record.SubscriptionEnd,
		Source:             string(record.Source),
		CheckedAt:          record.CheckedAt,
		CreatedAt:          record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListRecent returns the latest audit rows for a domain, newest first.
func (r *CheckAuditRepository) ListRecent(ctx context.Context, dom string, limit int) ([]domain.CheckRecord, error) {
	if r.db == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 20
	}
	var models []CheckRecordModel
	err := r.db.WithContext(ctx).
		Where("domain = ?", dom).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]domain.CheckRecord, 0, len(models))
	for _, m := range models {
		records = append(records, domain.CheckRecord{
			ID:                 m.ID,
			Domain:             m.Domain,
			Valid:              m.Valid,
			GloballyVerified:   m.GloballyVerified,
			Reason:             domain.ReasonCode(m.Reason),
			SubscriptionStatus: m.SubscriptionStatus,
			SubscriptionEnd:    m.SubscriptionEnd,
			Source:             domain.CheckSource(m.Source),
			CheckedAt:          m.CheckedAt,
			CreatedAt:          m.CreatedAt,
		})
	}
	return records, nil
}

var _ usecase.CheckAuditRepository = (*CheckAuditRepository)(nil)
