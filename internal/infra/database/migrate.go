package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsTable = "goose_db_version"

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *logrus.Entry) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger.WithField("component", "migrations")})
	goose.SetTableName(migrationsTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through logrus. Fatalf is logged as an
// error so a failed migration is returned to the caller instead of exiting.
type gooseLogger struct {
	logger *logrus.Entry
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Errorf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Infof(format, v...)
}
