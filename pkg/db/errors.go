package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether the provided error is a Postgres unique
// violation. An optional constraint name narrows the check to one index.
func IsUniqueViolation(err error, constraintName ...string) bool {
	if err == nil {
		return false
	}

	var constraint string

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		constraint = pgErr.ConstraintName
	case errors.As(err, &pqErr):
		if string(pqErr.Code) != uniqueViolationCode {
			return false
		}
		constraint = pqErr.Constraint
	default:
		// sqlite and wrapped drivers only give us message text
		msg := err.Error()
		if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
			return false
		}
		if len(constraintName) > 0 && constraintName[0] != "" {
			return strings.Contains(msg, constraintName[0])
		}
		return true
	}

	if len(constraintName) > 0 && constraintName[0] != "" {
		return constraint == constraintName[0]
	}
	return true
}
