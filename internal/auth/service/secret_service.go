package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// secretService implements SecretService using Argon2id.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashed, nil
}

func (s *secretService) VerifySecret(plainSecret string, hashedSecret string) (bool, error) {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to verify secret")
	}
	return ok, nil
}

// NewSecretService creates a SecretService using the Moderate Argon2id policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid built-in policy.
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
