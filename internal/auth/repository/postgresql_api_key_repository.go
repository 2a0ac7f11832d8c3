package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/database"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

const apiKeyColumns = `key_id, key_hash, roles, owner, description, created_at, expires_at, restrictions`

// PostgreSQLAPIKeyRepository persists organization API keys in PostgreSQL. Roles and
// restrictions are stored as JSONB.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new key. A key id collision returns ErrAPIKeyExists.
func (p *PostgreSQLAPIKeyRepository) Create(ctx context.Context, key *authDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := jsonText(key.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key roles")
	}
	restrictionsJSON, err := nullableJSONText(key.Restrictions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key restrictions")
	}

	query := `INSERT INTO api_keys (` + apiKeyColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

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
		if isPostgreSQLUniqueViolation(err) {
			return authDomain.ErrAPIKeyExists
		}
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Get returns the key with the given id or ErrAPIKeyNotFound.
func (p *PostgreSQLAPIKeyRepository) Get(ctx context.Context, keyID string) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_id = $1`

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
func (p *PostgreSQLAPIKeyRepository) Delete(ctx context.Context, keyID string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE key_id = $1`, keyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	return requireAffected(result, authDomain.ErrAPIKeyNotFound)
}

// List returns keys ordered by creation time, newest first.
func (p *PostgreSQLAPIKeyRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys
			  ORDER BY created_at DESC, key_id
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	return collectAPIKeys(rows)
}

// DeleteExpired removes every key whose expiry is at or before now and returns the
// number removed.
func (p *PostgreSQLAPIKeyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM api_keys WHERE expires_at IS NOT NULL AND expires_at <= $1`,
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

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL API key repository.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAPIKey reads one api_keys row selected with apiKeyColumns. Both drivers return
// JSON columns as bytes.
func scanAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var (
		key              authDomain.APIKey
		rolesJSON        []byte
		restrictionsJSON []byte
		expiresAt        sql.NullInt64
	)
	err := row.Scan(
		&key.KeyID,
		&key.KeyHash,
		&rolesJSON,
		&key.Owner,
		&key.Description,
		&key.CreatedAt,
		&expiresAt,
		&restrictionsJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rolesJSON, &key.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal api key roles")
	}
	if len(restrictionsJSON) > 0 {
		if err := json.Unmarshal(restrictionsJSON, &key.Restrictions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal api key restrictions")
		}
	}
	if expiresAt.Valid {
		key.ExpiresAt = &expiresAt.Int64
	}
	return &key, nil
}

func collectAPIKeys(rows *sql.Rows) ([]*authDomain.APIKey, error) {
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}
	return keys, nil
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
