package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

const (
	keyIDBytes     = 6
	rawKeyBytes    = 32
	checksumLength = 6
)

// GeneratedAPIKey is the result of issuing a new key.
type GeneratedAPIKey struct {
	FullKey    string
	SecretHash string
	KeyID      string
}

type apiKeyCodec struct {
	secrets SecretService
}

// NewAPIKeyCodec creates an APIKeyCodec hashing secrets with secrets.
func NewAPIKeyCodec(secrets SecretService) APIKeyCodec {
	return &apiKeyCodec{secrets: secrets}
}

// Checksum returns the first six hex characters of sha256(rawKey).
func Checksum(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])[:checksumLength]
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (c *apiKeyCodec) Generate() (*GeneratedAPIKey, error) {
	keyID, err := randomHex(keyIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate key id")
	}
	rawKey, err := randomHex(rawKeyBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate key material")
	}

	hash, err := c.secrets.HashSecret(rawKey)
	if err != nil {
		return nil, err
	}

	fullKey := strings.Join([]string{domain.APIKeyPrefix, keyID, rawKey, Checksum(rawKey)}, "_")
	return &GeneratedAPIKey{FullKey: fullKey, SecretHash: hash, KeyID: keyID}, nil
}

func (c *apiKeyCodec) Decompose(fullKey string) (*domain.DecomposedAPIKey, error) {
	parts := strings.Split(fullKey, "_")
	if len(parts) < 4 {
		return nil, domain.ErrInvalidCredentialFormat
	}
	prefix, id, rawKey, checksum := parts[0], parts[1], parts[2], parts[3]
	if prefix != domain.APIKeyPrefix ||
		len(id) != keyIDBytes*2 ||
		len(rawKey) != rawKeyBytes*2 ||
		len(checksum) != checksumLength {
		return nil, domain.ErrInvalidCredentialFormat
	}
	return &domain.DecomposedAPIKey{Prefix: prefix, ID: id, RawKey: rawKey, Checksum: checksum}, nil
}

func (c *apiKeyCodec) Verify(fullKey string, storedHash string) (bool, error) {
	parts, err := c.Decompose(fullKey)
	if err != nil {
		if apperrors.Is(err, domain.ErrInvalidCredentialFormat) {
			return false, nil
		}
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(Checksum(parts.RawKey)), []byte(parts.Checksum)) != 1 {
		return false, nil
	}

	return c.secrets.VerifySecret(parts.RawKey, storedHash)
}
