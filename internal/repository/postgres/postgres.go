package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Services lean on this for every racy insert: duplicate room names,
// duplicate favorites, and message token collisions all funnel through here
// instead of being pre-checked with a lookup.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
