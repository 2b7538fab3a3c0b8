package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/user"

	"github.com/lib/pq"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT id, display_name, class_year, push_tokens, created_at
               FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.ClassYear, pq.Array(&u.PushTokens), &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, display_name, class_year, push_tokens, created_at
               FROM users WHERE id = $1`
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.DisplayName, &u.ClassYear, pq.Array(&u.PushTokens), &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

// GetPreferences reads the notify* flags stored in the preferences column.
func (r *PostgresUserRepository) GetPreferences(ctx context.Context, id string) (notification.Preferences, error) {
	query := `SELECT preferences FROM users WHERE id = $1`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("error getting preferences for user %s: %w", id, err)
	}

	stored := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, fmt.Errorf("error decoding preferences for user %s: %w", id, err)
		}
	}
	// Non-boolean settings share the column; only flags count.
	fields := make(map[string]bool, len(stored))
	for name, v := range stored {
		if b, ok := v.(bool); ok {
			fields[name] = b
		}
	}
	return notification.PreferencesFromFields(fields), nil
}
