package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretService(t *testing.T) {
	service := NewSecretService()
	assert.NotNil(t, service)
	assert.IsType(t, &secretService{}, service)
}

func TestSecretService_HashSecret(t *testing.T) {
	service := NewSecretService()

	t.Run("Success_HashesSecretCorrectly", func(t *testing.T) {
		plainSecret := "test-secret-123"
		hashedSecret, err := service.HashSecret(plainSecret)
		require.NoError(t, err)

		assert.NotEqual(t, plainSecret, hashedSecret)
		assert.Contains(t, hashedSecret, "$argon2id$")
	})

	t.Run("Success_SameSecretProducesDifferentHashes", func(t *testing.T) {
		plainSecret := "test-secret-123"

		hashedSecret1, err := service.HashSecret(plainSecret)
		require.NoError(t, err)
		hashedSecret2, err := service.HashSecret(plainSecret)
		require.NoError(t, err)

		// Different salts
		assert.NotEqual(t, hashedSecret1, hashedSecret2)

		ok, err := service.VerifySecret(plainSecret, hashedSecret1)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = service.VerifySecret(plainSecret, hashedSecret2)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSecretService_VerifySecret(t *testing.T) {
	service := NewSecretService()
	hashedSecret, err := service.HashSecret("correct-secret")
	require.NoError(t, err)

	t.Run("Success_CorrectSecretMatches", func(t *testing.T) {
		ok, err := service.VerifySecret("correct-secret", hashedSecret)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Failure_IncorrectSecretDoesNotMatch", func(t *testing.T) {
		ok, err := service.VerifySecret("wrong-secret", hashedSecret)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Failure_CaseSensitive", func(t *testing.T) {
		ok, err := service.VerifySecret("CORRECT-SECRET", hashedSecret)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Error_InvalidHashFormat", func(t *testing.T) {
		ok, err := service.VerifySecret("correct-secret", "invalid-hash-format")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
