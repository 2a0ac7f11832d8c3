package dto

import (
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
)

// CreateAPIKeyResponse contains the result of issuing an API key.
// SECURITY: The key is only returned once and must be saved securely.
type CreateAPIKeyResponse struct {
	APIKey    string `json:"apiKey"` //nolint:gosec // returned once on creation
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// MapCreateAPIKeyOutput converts the issuance result to an API response.
func MapCreateAPIKeyOutput(output *authDomain.CreateAPIKeyOutput) CreateAPIKeyResponse {
	return CreateAPIKeyResponse{
		APIKey:    output.APIKey,
		ExpiresAt: output.ExpiresAt,
	}
}

// APIKeyResponse represents a key record in API responses (excludes the hash).
type APIKeyResponse struct {
	KeyID        string                         `json:"keyId"`
	Roles        []authDomain.Role              `json:"roles"`
	Owner        string                         `json:"owner"`
	Description  string                         `json:"description"`
	CreatedAt    int64                          `json:"createdAt"`
	ExpiresAt    *int64                         `json:"expiresAt,omitempty"`
	Restrictions []authDomain.PolicyRestriction `json:"restrictions,omitempty"`
}

// MapAPIKeyToResponse converts a domain key record to an API response.
func MapAPIKeyToResponse(key *authDomain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		KeyID:        key.KeyID,
		Roles:        key.Roles,
		Owner:        key.Owner,
		Description:  key.Description,
		CreatedAt:    key.CreatedAt,
		ExpiresAt:    key.ExpiresAt,
		Restrictions: key.Restrictions,
	}
}

// ListAPIKeysResponse represents a paginated list of API keys.
type ListAPIKeysResponse struct {
	Data []APIKeyResponse `json:"data"`
}

// MapAPIKeysToListResponse converts domain key records to a list API response.
func MapAPIKeysToListResponse(keys []*authDomain.APIKey) ListAPIKeysResponse {
	responses := make([]APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, MapAPIKeyToResponse(key))
	}
	return ListAPIKeysResponse{Data: responses}
}

// ProtectedResponse describes the caller of the protected probe route.
type ProtectedResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID        string    `json:"id"`
	Module    string    `json:"module"`
	Actor     string    `json:"actor"`
	Target    string    `json:"target"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *authDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        auditLog.ID.String(),
		Module:    auditLog.Module,
		Actor:     auditLog.Actor,
		Target:    auditLog.Target,
		Message:   auditLog.Message,
		RequestID: auditLog.RequestID,
		CreatedAt: auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*authDomain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}
