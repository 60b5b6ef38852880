package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// UniqueConstraint names a unique index by its Postgres constraint name and
// the table/column pair SQLite reports instead.
type UniqueConstraint struct {
	Name   string
	Table  string
	Column string
}

// IsUniqueViolation reports whether err is a unique violation. When c has a
// name, only violations of that constraint match.
func IsUniqueViolation(err error, c UniqueConstraint) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return c.Name == "" || pgErr.ConstraintName == c.Name
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		if c.Table == "" || c.Column == "" {
			return true
		}
		return strings.Contains(msg, c.Table+"."+c.Column)
	case strings.Contains(msg, "duplicate key value"):
		return c.Name == "" || strings.Contains(msg, c.Name)
	}
	return false
}
