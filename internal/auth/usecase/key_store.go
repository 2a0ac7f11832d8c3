package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/background"
	"github.com/acm-uiuc/authcore/internal/cache"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// APIKeyCachePrefix namespaces cached API key records.
const APIKeyCachePrefix = "auth_apikey_"

// DefaultAPIKeyCacheTTL bounds how long a key record, or its absence, is cached.
const DefaultAPIKeyCacheTTL = 120 * time.Second

// cachedAPIKey is the cache envelope. Missing marks a negative entry.
type cachedAPIKey struct {
	Missing bool               `json:"missing,omitempty"`
	Key     *authDomain.APIKey `json:"key,omitempty"`
}

// KeyStoreConfig configures the API key store.
type KeyStoreConfig struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

type keyStore struct {
	cfg    KeyStoreConfig
	repo   APIKeyRepository
	cache  cache.Cache
	runner background.Runner
	logger *slog.Logger
}

// NewKeyStore creates a KeyStore reading through cache to repo. Expired records are
// deleted on runner.
func NewKeyStore(
	cfg KeyStoreConfig,
	repo APIKeyRepository,
	c cache.Cache,
	runner background.Runner,
	logger *slog.Logger,
) KeyStore {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultAPIKeyCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &keyStore{cfg: cfg, repo: repo, cache: c, runner: runner, logger: logger}
}

func (k *keyStore) Fetch(ctx context.Context, keyID string) (*authDomain.APIKey, error) {
	cacheKey := APIKeyCachePrefix + keyID

	cached, found, err := cache.GetJSON[cachedAPIKey](ctx, k.cache, cacheKey)
	if err != nil {
		k.logger.Warn("failed to read cached api key", slog.String("key_id", keyID), slog.Any("error", err))
	}
	if found {
		if cached.Missing {
			return nil, nil
		}
		if cached.Key != nil {
			return cached.Key, nil
		}
	}

	key, err := k.repo.Get(ctx, keyID)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrAPIKeyNotFound) {
			k.store(ctx, cacheKey, cachedAPIKey{Missing: true}, k.cfg.CacheTTL)
			return nil, nil
		}
		return nil, err
	}

	now := k.cfg.Now()
	if key.IsExpired(now) {
		k.runner.Go(ctx, "delete_expired_api_key", func(taskCtx context.Context) error {
			err := k.repo.Delete(taskCtx, keyID)
			if apperrors.Is(err, authDomain.ErrAPIKeyNotFound) {
				return nil
			}
			return err
		})
		return nil, nil
	}

	// Records without a hash can never verify; leave them uncached.
	if key.KeyHash == "" {
		return nil, nil
	}

	ttl := k.cfg.CacheTTL
	if key.ExpiresAt != nil {
		if remaining := time.Duration(*key.ExpiresAt-now.Unix()) * time.Second; remaining < ttl {
			ttl = remaining
		}
	}
	k.store(ctx, cacheKey, cachedAPIKey{Key: key}, ttl)

	return key, nil
}

func (k *keyStore) Evict(ctx context.Context, keyID string) error {
	return k.cache.Delete(ctx, APIKeyCachePrefix+keyID)
}

func (k *keyStore) store(ctx context.Context, cacheKey string, value cachedAPIKey, ttl time.Duration) {
	if err := cache.SetJSON(ctx, k.cache, cacheKey, value, ttl); err != nil {
		k.logger.Warn("failed to cache api key", slog.String("cache_key", cacheKey), slog.Any("error", err))
	}
}
