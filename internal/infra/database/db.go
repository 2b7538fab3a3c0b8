package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 1 * time.Minute
	pingTimeout     = 30 * time.Second
	pingInterval    = time.Second
)

// ErrDatabaseNotReady is returned when the database keeps refusing pings.
var ErrDatabaseNotReady = fmt.Errorf("database is not ready")

// NewPostgresConnection opens a pool sized for maxOpenConns concurrent
// writers and waits until the database answers.
func NewPostgresConnection(ctx context.Context, dataSourceName string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(max(maxOpenConns/2, 2))
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := waitForPing(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// waitForPing retries until the first successful ping or the timeout.
func waitForPing(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrDatabaseNotReady, err)
		case <-time.After(pingInterval):
		}
	}
}
