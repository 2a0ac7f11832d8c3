package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	authService "github.com/acm-uiuc/authcore/internal/auth/service"
	"github.com/acm-uiuc/authcore/internal/database"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// Client-facing key management messages.
const (
	MsgExpiryInPast    = "expiresAt must be a future epoch time."
	MsgKeyDoesNotExist = "Key does not exist."
	msgCreateKeyFailed = "Could not create API key."
	msgDeleteKeyFailed = "Could not delete API key."
)

// apiKeyUseCase implements APIKeyUseCase.
type apiKeyUseCase struct {
	txManager    database.TxManager
	apiKeyRepo   APIKeyRepository
	auditLogRepo AuditLogRepository
	codec        authService.APIKeyCodec
	keys         KeyStore
	logger       *slog.Logger
	now          func() time.Time
}

// Create issues a key. The audit entry and the record are written in one transaction
// so a key never exists without its audit trail.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	if err := authDomain.ValidateAPIKeyRoles(input.Roles); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}
	now := a.now()
	if input.ExpiresAt != nil && *input.ExpiresAt <= now.Unix() {
		return nil, apperrors.NewValidation(MsgExpiryInPast)
	}

	generated, err := a.codec.Generate()
	if err != nil {
		return nil, err
	}

	key := &authDomain.APIKey{
		KeyID:        generated.KeyID,
		KeyHash:      generated.SecretHash,
		Roles:        input.Roles,
		Owner:        input.Owner,
		Description:  input.Description,
		CreatedAt:    now.Unix(),
		ExpiresAt:    input.ExpiresAt,
		Restrictions: input.Restrictions,
	}
	auditLog := authDomain.NewAuditLog(
		authDomain.ModuleAPIKey,
		input.Owner,
		authDomain.APIKeyUsername(generated.KeyID),
		"Created API key.",
		input.RequestID,
	)

	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.auditLogRepo.Create(ctx, auditLog); err != nil {
			return err
		}
		return a.apiKeyRepo.Create(ctx, key)
	})
	if err != nil {
		a.logger.Error("failed to create api key", slog.String("key_id", key.KeyID), slog.Any("error", err))
		return nil, apperrors.NewDatabaseInsert(msgCreateKeyFailed).WithCause(err)
	}

	return &authDomain.CreateAPIKeyOutput{
		APIKey:    generated.FullKey,
		KeyID:     generated.KeyID,
		ExpiresAt: input.ExpiresAt,
	}, nil
}

// Revoke deletes the key and its cached record.
func (a *apiKeyUseCase) Revoke(ctx context.Context, keyID, actor, requestID string) error {
	auditLog := authDomain.NewAuditLog(
		authDomain.ModuleAPIKey,
		actor,
		authDomain.APIKeyUsername(keyID),
		"Deleted API key.",
		requestID,
	)

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.auditLogRepo.Create(ctx, auditLog); err != nil {
			return err
		}
		return a.apiKeyRepo.Delete(ctx, keyID)
	})
	if err != nil {
		if apperrors.Is(err, authDomain.ErrAPIKeyNotFound) {
			return apperrors.NewValidation(MsgKeyDoesNotExist)
		}
		a.logger.Error("failed to delete api key", slog.String("key_id", keyID), slog.Any("error", err))
		return apperrors.NewDatabaseDelete(msgDeleteKeyFailed).WithCause(err)
	}

	if err := a.keys.Evict(ctx, keyID); err != nil {
		a.logger.Warn("failed to evict cached api key", slog.String("key_id", keyID), slog.Any("error", err))
	}
	return nil
}

// List returns keys without their hashes.
func (a *apiKeyUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	keys, err := a.apiKeyRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	masked := make([]*authDomain.APIKey, 0, len(keys))
	for _, key := range keys {
		m := key.Masked()
		masked = append(masked, &m)
	}
	return masked, nil
}

func (a *apiKeyUseCase) CleanExpired(ctx context.Context) (int64, error) {
	count, err := a.apiKeyRepo.DeleteExpired(ctx, a.now())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired api keys")
	}
	return count, nil
}

// NewAPIKeyUseCase creates a new APIKeyUseCase with the provided dependencies.
func NewAPIKeyUseCase(
	txManager database.TxManager,
	apiKeyRepo APIKeyRepository,
	auditLogRepo AuditLogRepository,
	codec authService.APIKeyCodec,
	keys KeyStore,
	logger *slog.Logger,
) APIKeyUseCase {
	return &apiKeyUseCase{
		txManager:    txManager,
		apiKeyRepo:   apiKeyRepo,
		auditLogRepo: auditLogRepo,
		codec:        codec,
		keys:         keys,
		logger:       logger,
		now:          time.Now,
	}
}
