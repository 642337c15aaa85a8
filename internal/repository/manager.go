package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Manager vends repositories bound to either the connection pool or a transaction.
type Manager interface {
	Conn() DBTX
	Users(db DBTX) UserRepository
	Todos(db DBTX) TodoRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}
