package service

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/acm-uiuc/authcore/internal/cache"
	"github.com/acm-uiuc/authcore/internal/errors"
)

// DefaultJWKSURL is the identity platform's common discovery keys endpoint.
const DefaultJWKSURL = "https://login.microsoftonline.com/common/discovery/keys"

// JWKSCachePrefix namespaces cached signing keys.
const JWKSCachePrefix = "jwksKey:"

// JWKSConfig configures the JWKS signing key provider.
type JWKSConfig struct {
	URL          string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// cachedSigningKey is the cached representation of a public key.
type cachedSigningKey struct {
	Key string `json:"key"`
}

// JWKSKeyProvider resolves RS256 verification keys by kid, caching each key in the
// shared cache. Concurrent misses for the same kid share a single fetch.
type JWKSKeyProvider struct {
	cfg        JWKSConfig
	httpClient *http.Client
	cache      cache.Cache
	logger     *slog.Logger
	group      singleflight.Group
}

// NewJWKSKeyProvider creates a provider. A nil client uses http.DefaultClient; the
// fetch timeout is always applied through the request context.
func NewJWKSKeyProvider(cfg JWKSConfig, client *http.Client, c cache.Cache, logger *slog.Logger) *JWKSKeyProvider {
	if cfg.URL == "" {
		cfg.URL = DefaultJWKSURL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &JWKSKeyProvider{cfg: cfg, httpClient: client, cache: c, logger: logger}
}

// SigningKey returns the public key for kid from cache or the JWKS endpoint.
func (p *JWKSKeyProvider) SigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	cacheKey := JWKSCachePrefix + kid

	cached, found, err := cache.GetJSON[cachedSigningKey](ctx, p.cache, cacheKey)
	if err != nil {
		p.logger.Warn("failed to read cached signing key", slog.String("kid", kid), slog.Any("error", err))
	}
	if found {
		key, parseErr := jwt.ParseRSAPublicKeyFromPEM([]byte(cached.Key))
		if parseErr == nil {
			p.logger.Debug("got jwks signing key from cache", slog.String("kid", kid))
			return key, nil
		}
		p.logger.Warn("discarding unparseable cached signing key", slog.String("kid", kid), slog.Any("error", parseErr))
	}

	result, err, _ := p.group.Do(kid, func() (any, error) {
		return p.fetch(ctx, kid)
	})
	if err != nil {
		return nil, err
	}
	key := result.(*rsa.PublicKey)

	encoded, err := encodePublicKey(key)
	if err == nil {
		err = cache.SetJSON(ctx, p.cache, cacheKey, cachedSigningKey{Key: encoded}, p.cfg.CacheTTL)
	}
	if err != nil {
		p.logger.Warn("failed to cache signing key", slog.String("kid", kid), slog.Any("error", err))
	}

	p.logger.Debug("got jwks signing key from server", slog.String("kid", kid))
	return key, nil
}

func (p *JWKSKeyProvider) fetch(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	// Shared by all callers waiting on this kid, so it must not die with the first one.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, p.cfg.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrJWKSTimeout, p.cfg.FetchTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrJWKSFetch, resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrJWKSTimeout, p.cfg.FetchTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	for _, jwk := range set.Key(kid) {
		if key, ok := jwk.Key.(*rsa.PublicKey); ok {
			return key, nil
		}
	}
	return nil, errors.Wrapf(ErrSigningKeyNotFound, "kid %s", kid)
}

func encodePublicKey(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
