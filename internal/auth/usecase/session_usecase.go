package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/cache"
)

// RevocationListPrefix namespaces revoked token identifiers.
const RevocationListPrefix = "tokenRevocationList:"

type revocationEntry struct {
	IsInvalid bool `json:"isInvalid"`
}

type sessionUseCase struct {
	cache    cache.Cache
	resolver RoleResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionUseCase creates a SessionUseCase storing revocations in c.
func NewSessionUseCase(c cache.Cache, resolver RoleResolver, logger *slog.Logger) SessionUseCase {
	return &sessionUseCase{cache: c, resolver: resolver, logger: logger, now: time.Now}
}

func (s *sessionUseCase) IsRevoked(ctx context.Context, uti string) (bool, error) {
	if uti == "" {
		return false, nil
	}
	entry, found, err := cache.GetJSON[revocationEntry](ctx, s.cache, RevocationListPrefix+uti)
	if err != nil {
		return false, err
	}
	return found && entry.IsInvalid, nil
}

func (s *sessionUseCase) ClearSession(ctx context.Context, username string, claims authDomain.Claims) error {
	if err := s.resolver.ClearCache(ctx, username); err != nil {
		return err
	}

	if claims == nil {
		return nil
	}
	common := claims.Common()
	if common.UTI == "" || common.ExpiresAt == 0 {
		return nil
	}

	// Revoked until the token would have expired anyway.
	ttl := time.Unix(common.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := cache.SetJSON(ctx, s.cache, RevocationListPrefix+common.UTI, revocationEntry{IsInvalid: true}, ttl); err != nil {
		return err
	}
	s.logger.Info("revoked token", slog.String("user", username), slog.String("uti", common.UTI))
	return nil
}
