// Package repository implements the durable stores: catalog, credential
// ledger, subscription tracker, payment dedup records, referral earnings and
// the lifecycle audit log, all over PostgreSQL via pgx.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePayment is returned when a payload token has already been
	// consumed. The caller returns the previously recorded result instead.
	ErrDuplicatePayment = errors.New("payment already processed")

	// ErrServerFull is returned when a server has no free connection slots.
	ErrServerFull = errors.New("server at capacity")
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories are constructed over a Querier so the same code runs against
// the pool and inside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
