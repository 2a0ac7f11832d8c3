package usecase

import (
	"context"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
	"github.com/acm-uiuc/authcore/internal/metrics"
)

// authorizerWithMetrics decorates Authorizer with decision metrics.
type authorizerWithMetrics struct {
	next    Authorizer
	metrics metrics.BusinessMetrics
}

// NewAuthorizerWithMetrics wraps an Authorizer with metrics recording.
func NewAuthorizerWithMetrics(authorizer Authorizer, m metrics.BusinessMetrics) Authorizer {
	return &authorizerWithMetrics{next: authorizer, metrics: m}
}

// Authorize records the decision outcome and duration.
func (a *authorizerWithMetrics) Authorize(ctx context.Context, req *AuthorizationRequest) (*Decision, error) {
	start := time.Now()
	decision, err := a.next.Authorize(ctx, req)

	credential := "bearer"
	if !req.DisableAPIKeyAuth && req.APIKey != "" {
		credential = "api_key"
	}

	a.metrics.RecordAuthDecision(ctx, credential, decisionOutcome(err))
	a.metrics.RecordDuration(ctx, "auth", "authorize", time.Since(start), metrics.StatusOf(err))

	return decision, err
}

func decisionOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeAllowed
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return metrics.OutcomeError
	}
	switch appErr.Name {
	case apperrors.NameUnauthenticated:
		return metrics.OutcomeUnauthenticated
	case apperrors.NameUnauthorized:
		return metrics.OutcomeUnauthorized
	default:
		return metrics.OutcomeError
	}
}

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *apiKeyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	a.metrics.RecordOperation(ctx, "apikey", operation, status)
	a.metrics.RecordDuration(ctx, "apikey", operation, time.Since(start), status)
}

// Create records metrics for key issuance.
func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Create(ctx, input)
	a.record(ctx, "apikey_create", start, err)
	return output, err
}

// Revoke records metrics for key revocation.
func (a *apiKeyUseCaseWithMetrics) Revoke(ctx context.Context, keyID, actor, requestID string) error {
	start := time.Now()
	err := a.next.Revoke(ctx, keyID, actor, requestID)
	a.record(ctx, "apikey_revoke", start, err)
	return err
}

// List records metrics for key listing.
func (a *apiKeyUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	start := time.Now()
	keys, err := a.next.List(ctx, offset, limit)
	a.record(ctx, "apikey_list", start, err)
	return keys, err
}

// CleanExpired records metrics for expired key cleanup.
func (a *apiKeyUseCaseWithMetrics) CleanExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := a.next.CleanExpired(ctx)
	a.record(ctx, "apikey_clean_expired", start, err)
	return count, err
}

// iamUseCaseWithMetrics decorates IAMUseCase with metrics instrumentation.
type iamUseCaseWithMetrics struct {
	next    IAMUseCase
	metrics metrics.BusinessMetrics
}

// NewIAMUseCaseWithMetrics wraps an IAMUseCase with metrics recording.
func NewIAMUseCaseWithMetrics(useCase IAMUseCase, m metrics.BusinessMetrics) IAMUseCase {
	return &iamUseCaseWithMetrics{next: useCase, metrics: m}
}

func (i *iamUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	i.metrics.RecordOperation(ctx, "iam", operation, status)
	i.metrics.RecordDuration(ctx, "iam", operation, time.Since(start), status)
}

func (i *iamUseCaseWithMetrics) GetGroupRoles(ctx context.Context, groupID string) (*authDomain.GroupRoles, error) {
	start := time.Now()
	roles, err := i.next.GetGroupRoles(ctx, groupID)
	i.record(ctx, "iam_get_group_roles", start, err)
	return roles, err
}

func (i *iamUseCaseWithMetrics) SetGroupRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	start := time.Now()
	err := i.next.SetGroupRoles(ctx, input)
	i.record(ctx, "iam_set_group_roles", start, err)
	return err
}

func (i *iamUseCaseWithMetrics) GetUserRoles(ctx context.Context, userEmail string) (*authDomain.UserRoles, error) {
	start := time.Now()
	roles, err := i.next.GetUserRoles(ctx, userEmail)
	i.record(ctx, "iam_get_user_roles", start, err)
	return roles, err
}

func (i *iamUseCaseWithMetrics) SetUserRoles(ctx context.Context, input *authDomain.SetRolesInput) error {
	start := time.Now()
	err := i.next.SetUserRoles(ctx, input)
	i.record(ctx, "iam_set_user_roles", start, err)
	return err
}
