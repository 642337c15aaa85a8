package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"todo-backend/internal/repository"
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case DialectSQLite:
		return DialectSQLite, nil
	case DialectPostgres, "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites '?' placeholders into the dialect's positional form.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store owns the connection pool and vends repositories bound to it or to a transaction.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ repository.Manager = (*Store)(nil)

// Open opens (or creates) the database described by dialect and dsn.
// For sqlite the dsn is a file path and missing directories are created.
func Open(dialect Dialect, dsn string) (*Store, error) {
	if dialect == DialectSQLite {
		path, _, _ := strings.Cut(dsn, "?")
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// sqlite allows a single writer; one connection also keeps :memory: databases alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping sqlite db: %w", err)
		}
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	}

	return New(db, dialect), nil
}

// sqliteDSN adds the foreign_keys pragma so the driver applies it to every new connection.
func sqliteDSN(dsn string) string {
	const fk = "_pragma=foreign_keys(1)"
	if strings.Contains(dsn, fk) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + fk
	}
	return dsn + "?" + fk
}

// New wraps an already opened pool.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Conn() repository.DBTX {
	return s.db
}

func (s *Store) Users(db repository.DBTX) repository.UserRepository {
	return NewUserRepository(db, s.dialect)
}

func (s *Store) Todos(db repository.DBTX) repository.TodoRepository {
	return NewTodoRepository(db, s.dialect)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	return WithTx(ctx, s.db, nil, fn)
}
