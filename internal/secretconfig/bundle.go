// Package secretconfig decrypts the service's secret bundle with a gocloud.dev secrets
// keeper.
//
// The bundle is a JSON object encrypted by the keeper and stored base64-encoded in
// configuration:
//
//	SECRET_KEEPER_URL="awskms://alias/authcore?region=us-east-1"
//	SECRET_BUNDLE_CIPHERTEXT="AQICAHh..."
//
// Supported keeper schemes: awskms://, gcpkms://, azurekeyvault://, hashivault:// and
// base64key:// (local development).
package secretconfig

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/acm-uiuc/authcore/internal/errors"

	// Register all keeper drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Bundle errors.
var (
	ErrKeeperURLNotSet     = errors.Wrap(errors.ErrInvalidInput, "secret keeper url is not set")
	ErrInvalidCiphertext   = errors.Wrap(errors.ErrInvalidInput, "secret bundle ciphertext is not valid base64")
	ErrInvalidBundleFormat = errors.Wrap(errors.ErrInvalidInput, "secret bundle is not a JSON object")
)

// Bundle holds the secrets the service reads at startup.
type Bundle struct {
	// JWTKey signs and verifies locally issued development tokens.
	JWTKey string `json:"jwt_key"`
}

// Keeper decrypts ciphertext. *secrets.Keeper implements it.
type Keeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// OpenKeeper opens the keeper for keeperURL.
func OpenKeeper(ctx context.Context, keeperURL string) (Keeper, error) {
	if keeperURL == "" {
		return nil, ErrKeeperURLNotSet
	}
	keeper, err := secrets.OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret keeper: %w", err)
	}
	return keeper, nil
}

// Decrypt decodes and decrypts a base64 bundle with keeper.
func Decrypt(ctx context.Context, keeper Keeper, ciphertextB64 string) (*Bundle, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret bundle: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, ErrInvalidBundleFormat
	}
	return &bundle, nil
}

// Load opens the keeper at keeperURL and decrypts the bundle. An empty ciphertext
// yields an empty bundle without touching the keeper.
func Load(ctx context.Context, keeperURL, ciphertextB64 string) (*Bundle, error) {
	if ciphertextB64 == "" {
		return &Bundle{}, nil
	}

	keeper, err := OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = keeper.Close() }()

	return Decrypt(ctx, keeper, ciphertextB64)
}
