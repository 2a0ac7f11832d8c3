package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/database"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

// MySQLRoleMappingRepository stores group and user role mappings in MySQL.
type MySQLRoleMappingRepository struct {
	db *sql.DB
}

func (m *MySQLRoleMappingRepository) GetGroupRoles(ctx context.Context, groupID string) ([]string, error) {
	return m.get(ctx, `SELECT roles FROM group_roles WHERE group_id = ?`, groupID)
}

func (m *MySQLRoleMappingRepository) GetUserRoles(ctx context.Context, userEmail string) ([]string, error) {
	return m.get(ctx, `SELECT roles FROM user_roles WHERE user_email = ?`, userEmail)
}

func (m *MySQLRoleMappingRepository) SetGroupRoles(ctx context.Context, groupID string, roles []string) error {
	query := `INSERT INTO group_roles (group_id, roles, updated_at) VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE roles = VALUES(roles), updated_at = VALUES(updated_at)`
	return m.set(ctx, query, groupID, roles)
}

func (m *MySQLRoleMappingRepository) SetUserRoles(ctx context.Context, userEmail string, roles []string) error {
	query := `INSERT INTO user_roles (user_email, roles, updated_at) VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE roles = VALUES(roles), updated_at = VALUES(updated_at)`
	return m.set(ctx, query, userEmail, roles)
}

func (m *MySQLRoleMappingRepository) get(ctx context.Context, query, id string) ([]string, error) {
	querier := database.GetTx(ctx, m.db)

	var rolesJSON []byte
	if err := querier.QueryRowContext(ctx, query, id).Scan(&rolesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRoleMappingNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role mapping")
	}
	return unmarshalRoles(rolesJSON)
}

func (m *MySQLRoleMappingRepository) set(ctx context.Context, query, id string, roles []string) error {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := jsonText(roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal roles")
	}
	if _, err := querier.ExecContext(ctx, query, id, rolesJSON, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to set role mapping")
	}
	return nil
}

// NewMySQLRoleMappingRepository creates a new MySQL role mapping repository.
func NewMySQLRoleMappingRepository(db *sql.DB) *MySQLRoleMappingRepository {
	return &MySQLRoleMappingRepository{db: db}
}
