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

// PostgreSQLRoleMappingRepository stores group and user role mappings in PostgreSQL.
type PostgreSQLRoleMappingRepository struct {
	db *sql.DB
}

// GetGroupRoles returns the roles mapped to a group or ErrRoleMappingNotFound.
func (p *PostgreSQLRoleMappingRepository) GetGroupRoles(ctx context.Context, groupID string) ([]string, error) {
	return p.get(ctx, `SELECT roles FROM group_roles WHERE group_id = $1`, groupID)
}

// GetUserRoles returns the override roles of a user or ErrRoleMappingNotFound.
func (p *PostgreSQLRoleMappingRepository) GetUserRoles(ctx context.Context, userEmail string) ([]string, error) {
	return p.get(ctx, `SELECT roles FROM user_roles WHERE user_email = $1`, userEmail)
}

// SetGroupRoles replaces the roles mapped to a group.
func (p *PostgreSQLRoleMappingRepository) SetGroupRoles(ctx context.Context, groupID string, roles []string) error {
	query := `INSERT INTO group_roles (group_id, roles, updated_at) VALUES ($1, $2, $3)
			  ON CONFLICT (group_id) DO UPDATE SET roles = EXCLUDED.roles, updated_at = EXCLUDED.updated_at`
	return p.set(ctx, query, groupID, roles)
}

// SetUserRoles replaces the override roles of a user.
func (p *PostgreSQLRoleMappingRepository) SetUserRoles(ctx context.Context, userEmail string, roles []string) error {
	query := `INSERT INTO user_roles (user_email, roles, updated_at) VALUES ($1, $2, $3)
			  ON CONFLICT (user_email) DO UPDATE SET roles = EXCLUDED.roles, updated_at = EXCLUDED.updated_at`
	return p.set(ctx, query, userEmail, roles)
}

func (p *PostgreSQLRoleMappingRepository) get(ctx context.Context, query, id string) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	var rolesJSON []byte
	if err := querier.QueryRowContext(ctx, query, id).Scan(&rolesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRoleMappingNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role mapping")
	}
	return unmarshalRoles(rolesJSON)
}

func (p *PostgreSQLRoleMappingRepository) set(ctx context.Context, query, id string, roles []string) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := jsonText(roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal roles")
	}
	if _, err := querier.ExecContext(ctx, query, id, rolesJSON, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to set role mapping")
	}
	return nil
}

// NewPostgreSQLRoleMappingRepository creates a new PostgreSQL role mapping repository.
func NewPostgreSQLRoleMappingRepository(db *sql.DB) *PostgreSQLRoleMappingRepository {
	return &PostgreSQLRoleMappingRepository{db: db}
}
