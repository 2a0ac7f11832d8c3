package usecase

import (
	"context"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// auditLogUseCase implements AuditLogUseCase.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
}

// List retrieves audit logs ordered by created_at descending (newest first). An empty
// module returns entries of every module.
func (a *auditLogUseCase) List(
	ctx context.Context,
	module string,
	offset, limit int,
) ([]*authDomain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, module, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return auditLogs, nil
}

// DeleteOlderThan removes audit logs older than the given number of days.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be non-negative")
	}
	olderThan := time.Now().UTC().AddDate(0, 0, -days)

	count, err := a.auditLogRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
	}
}
