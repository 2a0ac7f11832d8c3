package domain

import (
	"time"
)

// APIKeyPrefix is the literal first segment of every organization API key.
const APIKeyPrefix = "acmuiuc"

// APIKey is the stored record for an organization API key. The raw secret is never
// stored, only its one-way hash.
type APIKey struct {
	KeyID        string              `json:"keyId"`
	KeyHash      string              `json:"keyHash"`
	Roles        []Role              `json:"roles"`
	Owner        string              `json:"owner"`
	Description  string              `json:"description"`
	CreatedAt    int64               `json:"createdAt"`
	ExpiresAt    *int64              `json:"expiresAt,omitempty"`
	Restrictions []PolicyRestriction `json:"restrictions,omitempty"`
}

// IsExpired reports whether the key has an expiry at or before now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && *k.ExpiresAt <= now.Unix()
}

// RoleSet returns the key's roles as a set.
func (k *APIKey) RoleSet() RoleSet {
	return NewRoleSet(k.Roles...)
}

// Masked returns the record without its hash, for listing.
func (k *APIKey) Masked() APIKey {
	masked := *k
	masked.KeyHash = ""
	return masked
}

// DecomposedAPIKey holds the four segments of a serialized API key.
type DecomposedAPIKey struct {
	Prefix   string
	ID       string
	RawKey   string
	Checksum string
}

// APIKeyUsername is the principal identifier used for requests authenticated by key id.
func APIKeyUsername(keyID string) string {
	return APIKeyPrefix + "_" + keyID
}

// PolicyRestriction is a named, parameterized policy attached to an API key.
type PolicyRestriction struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// CreateAPIKeyInput holds the parameters for issuing an organization API key.
type CreateAPIKeyInput struct {
	Roles        []Role
	Description  string
	Owner        string
	ExpiresAt    *int64
	Restrictions []PolicyRestriction
	RequestID    string
}

// CreateAPIKeyOutput is returned once at issuance. APIKey is the full serialized key and
// is never retrievable again.
type CreateAPIKeyOutput struct {
	APIKey    string
	KeyID     string
	ExpiresAt *int64
}
