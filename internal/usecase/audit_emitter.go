package usecase

import (
	"context"
	"errors"
	"time"

	"storegate/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const auditWriteTimeout = 5 * time.Second

// AuditEmitter appends license-check audit rows. Writes are fire-and-forget
// off the request path; losing an audit row must never cost a page load.
type AuditEmitter struct {
	Repo  CheckAuditRepository
	Clock Clock
	Log   *logrus.Logger
}

func NewAuditEmitter(repo CheckAuditRepository, clock Clock) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, record domain.CheckRecord) error {
	if e == nil || e.Repo == nil {
		return errors.New("audit repository required")
	}
	if record.Domain == "" {
		return domain.ErrDomainRequired
	}
	if record.Source == "" {
		return errors.New("audit record missing source")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = e.now().UTC()
	} else {
		record.CreatedAt = record.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, record)
}

// RecordCheck captures one authority round-trip asynchronously.
func (e *AuditEmitter) RecordCheck(_ context.Context, result domain.VerificationResult, source domain.CheckSource) {
	if e == nil || e.Repo == nil {
		return
	}
	record := recordFromResult(result, source)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()
		if err := e.Emit(ctx, record); err != nil && e.Log != nil {
			e.Log.WithError(err).WithField("domain", record.Domain).Debug("audit append failed")
		}
	}()
}

func recordFromResult(result domain.VerificationResult, source domain.CheckSource) domain.CheckRecord {
	record := domain.CheckRecord{
		Domain:           result.Domain,
		Valid:            result.Valid,
		GloballyVerified: result.GloballyVerified,
		Reason:           result.Reason,
		Source:           source,
		CheckedAt:        result.CheckedAt,
	}
	if result.Client != nil {
		record.SubscriptionStatus = result.Client.SubscriptionStatus
		record.SubscriptionEnd = result.Client.SubscriptionEndDate
	}
	return record
}

func (e *AuditEmitter) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}
