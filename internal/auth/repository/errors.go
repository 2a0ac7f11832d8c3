// Package repository provides PostgreSQL and MySQL persistence for API keys, role
// mappings and audit logs.
package repository

import (
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

const (
	postgresUniqueViolation = "23505"
	mysqlDuplicateEntry     = 1062
)

func isPostgreSQLUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == postgresUniqueViolation
}

func isMySQLUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// jsonText encodes v as a JSON string. MySQL rejects JSON sent with the binary
// charset, so JSON columns are always written as text.
func jsonText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// nullableJSONText is jsonText with an empty slice stored as NULL.
func nullableJSONText[T any](v []T) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return jsonText(v)
}

func unmarshalRoles(data []byte) ([]string, error) {
	roles := []string{}
	if len(data) == 0 {
		return roles, nil
	}
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal roles")
	}
	return roles, nil
}
