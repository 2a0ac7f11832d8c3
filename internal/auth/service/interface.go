// Package service provides the stateless building blocks of authentication: API key
// encoding and verification, secret hashing, signing key lookup and bearer token
// verification.
package service

import (
	"context"
	"crypto/rsa"

	"github.com/acm-uiuc/authcore/internal/auth/domain"
)

// SecretService hashes and verifies secret material with a memory-hard one-way hash.
type SecretService interface {
	// HashSecret returns the PHC-formatted hash of plainSecret.
	HashSecret(plainSecret string) (string, error)

	// VerifySecret reports whether plainSecret matches hashedSecret. An error is
	// returned only when the hash itself cannot be processed.
	VerifySecret(plainSecret string, hashedSecret string) (bool, error)
}

// APIKeyCodec encodes, decodes and verifies the self-describing API key format
// acmuiuc_<keyId>_<rawKey>_<checksum>.
type APIKeyCodec interface {
	// Generate creates a new key. The full key is shown once; only the hash is stored.
	Generate() (*GeneratedAPIKey, error)

	// Decompose splits and structurally validates a key. Returns
	// domain.ErrInvalidCredentialFormat for malformed input.
	Decompose(fullKey string) (*domain.DecomposedAPIKey, error)

	// Verify checks the checksum and then the secret against storedHash. Malformed
	// keys verify as false without error.
	Verify(fullKey string, storedHash string) (bool, error)
}

// SigningKeyProvider resolves identity provider public keys by key id.
type SigningKeyProvider interface {
	SigningKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// TokenVerifier verifies bearer tokens and returns their claims.
type TokenVerifier interface {
	// Verify returns *domain.LocalDevToken or *domain.ExternalIdentityToken. Client
	// failures are *errors.AppError; infrastructure failures are returned as-is.
	Verify(ctx context.Context, rawToken string) (domain.Claims, error)
}
