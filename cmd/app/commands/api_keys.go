package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/auth/http/dto"
	authUseCase "github.com/acm-uiuc/authcore/internal/auth/usecase"
)

// CreateAPIKeyOptions holds the create-api-key flag values.
type CreateAPIKeyOptions struct {
	Owner            string
	Roles            string
	Description      string
	ExpiresIn        time.Duration
	RestrictionsJSON string
	Format           string
}

// RunCreateAPIKey issues an organization API key. The full key is printed once and
// cannot be retrieved again.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	w io.Writer,
	opts CreateAPIKeyOptions,
	now time.Time,
) error {
	req := dto.CreateAPIKeyRequest{
		Roles:       splitList(opts.Roles),
		Description: opts.Description,
	}
	if opts.ExpiresIn > 0 {
		expiresAt := now.Add(opts.ExpiresIn).Unix()
		req.ExpiresAt = &expiresAt
	}
	if opts.RestrictionsJSON != "" {
		if err := json.Unmarshal([]byte(opts.RestrictionsJSON), &req.Restrictions); err != nil {
			return fmt.Errorf("failed to parse restrictions JSON: %w", err)
		}
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid api key: %w", err)
	}

	output, err := apiKeyUseCase.Create(ctx, req.ToInput(opts.Owner, ""))
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	if opts.Format == "json" {
		writeJSON(w, dto.MapCreateAPIKeyOutput(output))
	} else {
		_, _ = fmt.Fprintln(w, "API key created successfully!")
		_, _ = fmt.Fprintf(w, "Key ID:  %s\n", output.KeyID)
		_, _ = fmt.Fprintf(w, "API Key: %s\n", output.APIKey)
		if output.ExpiresAt != nil {
			_, _ = fmt.Fprintf(w, "Expires: %s\n", time.Unix(*output.ExpiresAt, 0).UTC().Format(time.RFC3339))
		}
		_, _ = fmt.Fprintln(w, "\nWARNING: Save this key securely. It will not be shown again.")
	}

	logger.Info("api key created",
		slog.String("key_id", output.KeyID),
		slog.String("owner", opts.Owner),
		slog.Any("roles", req.Roles),
	)
	return nil
}

// RunRevokeAPIKey deletes an API key and evicts it from the cache.
func RunRevokeAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	w io.Writer,
	keyID string,
	actor string,
	format string,
) error {
	if err := apiKeyUseCase.Revoke(ctx, keyID, actor, ""); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	if format == "json" {
		writeJSON(w, map[string]interface{}{"key_id": keyID, "revoked": true})
	} else {
		_, _ = fmt.Fprintf(w, "API key %s revoked\n", authDomain.APIKeyUsername(keyID))
	}

	logger.Info("api key revoked", slog.String("key_id", keyID), slog.String("actor", actor))
	return nil
}

// RunCleanExpiredAPIKeys deletes every API key whose expiry has passed.
func RunCleanExpiredAPIKeys(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	count, err := apiKeyUseCase.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean expired api keys: %w", err)
	}

	if format == "json" {
		writeJSON(w, map[string]interface{}{"count": count})
	} else {
		_, _ = fmt.Fprintf(w, "Successfully deleted %d expired api key(s)\n", count)
	}

	logger.Info("expired api keys cleaned", slog.Int64("count", count))
	return nil
}
