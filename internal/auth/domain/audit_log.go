package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit log modules.
const (
	ModuleAPIKey = "apiKey"
	ModuleIAM    = "iam"
)

// AuditLog records an administrative mutation: who did what to which target.
type AuditLog struct {
	ID        uuid.UUID
	Module    string
	Actor     string
	Target    string
	Message   string
	RequestID string
	CreatedAt time.Time
}

// NewAuditLog builds an entry with a fresh UUIDv7.
func NewAuditLog(module, actor, target, message, requestID string) *AuditLog {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &AuditLog{
		ID:        id,
		Module:    module,
		Actor:     actor,
		Target:    target,
		Message:   message,
		RequestID: requestID,
		CreatedAt: time.Now().UTC(),
	}
}
