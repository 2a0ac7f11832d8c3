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

// MySQLAPIKeyRepository persists organization API keys in MySQL. Roles and
// restrictions are stored in JSON columns.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new key. A key id collision returns ErrAPIKeyExists.
func (m *MySQLAPIKeyRepository) Create(ctx context.Context, key *authDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := jsonText(key.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key roles")
	}
	restrictionsJSON, err := nullableJSONText(key.Restrictions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key restrictions")
	}

	query := `INSERT INTO api_keys (` + apiKeyColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.KeyID,
		key.KeyHash,
		rolesJSON,
		key.Owner,
		key.Description,
		key.CreatedAt,
		key.ExpiresAt,
		restrictionsJSON,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return authDomain.ErrAPIKeyExists
		}
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Get returns the key with the given id or ErrAPIKeyNotFound.
func (m *MySQLAPIKeyRepository) Get(ctx context.Context, keyID string) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_id = ?`

	key, err := scanAPIKey(querier.QueryRowContext(ctx, query, keyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return key, nil
}

// Delete removes the key. Deleting an unknown key returns ErrAPIKeyNotFound.
func (m *MySQLAPIKeyRepository) Delete(ctx context.Context, keyID string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE key_id = ?`, keyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	return requireAffected(result, authDomain.ErrAPIKeyNotFound)
}

// List returns keys ordered by creation time, newest first.
func (m *MySQLAPIKeyRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys
			  ORDER BY created_at DESC, key_id
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	return collectAPIKeys(rows)
}

// DeleteExpired removes every key whose expiry is at or before now.
func (m *MySQLAPIKeyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM api_keys WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.Unix(),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired api keys")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// NewMySQLAPIKeyRepository creates a new MySQL API key repository.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}
