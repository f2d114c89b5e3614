package database

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the repositories use. *pgxpool.Pool,
// pgx.Tx and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DB interface {
	Querier

	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()

	// SQLDB exposes the pool through database/sql for the migration runner.
	SQLDB() *sql.DB
}
