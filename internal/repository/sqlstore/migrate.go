package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	goosedb "github.com/pressly/goose/v3/database"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migrate applies all pending schema migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context, logger logrus.FieldLogger) error {
	dir := "migrations/sqlite"
	dialect := goosedb.DialectSQLite3
	if s.dialect == DialectPostgres {
		dir = "migrations/postgres"
		dialect = goosedb.DialectPostgres
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if logger != nil {
		for _, res := range results {
			logger.WithFields(logrus.Fields{
				"version":  res.Source.Version,
				"duration": res.Duration,
			}).Info("applied migration")
		}
	}
	return nil
}
