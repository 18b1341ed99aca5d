package store

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql that SQL-backed DurableStores need.
// *sql.DB, *sql.Tx and *sql.Conn all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
