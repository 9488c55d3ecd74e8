// Package sqlxrepos provides PostgreSQL-backed repositories for the core
// business packages, built on jmoiron/sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

const pqUniqueViolation = "23505"

// trapNoRowsErr converts sql.ErrNoRows into the given business error.
func trapNoRowsErr(err, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}

// trapUniqueErr converts a unique constraint violation on the given
// constraint into the given business error.
func trapUniqueErr(err, uniqueErr error, constraint string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint {
		return uniqueErr
	}
	return err
}

func orderByClause(defaultOrdering string, ordering ...core.DBOrdering) string {
	if len(ordering) == 0 {
		return " ORDER BY " + defaultOrdering
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
