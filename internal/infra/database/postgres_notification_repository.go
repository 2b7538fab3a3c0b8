// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"campus_notifier/internal/domain/notification"

	"github.com/lib/pq" // For pq.Array and driver registration
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- In-app notification records ---

// Create inserts n; a second write with the same id replaces the first.
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	data, err := encodeData(n.Data)
	if err != nil {
		return fmt.Errorf("error encoding notification data: %w", err)
	}
	query := `INSERT INTO notifications (id, user_id, type, title, message, source_id, is_read, data)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT (id) DO UPDATE
               SET type = EXCLUDED.type, title = EXCLUDED.title, message = EXCLUDED.message,
                   source_id = EXCLUDED.source_id, is_read = EXCLUDED.is_read, data = EXCLUDED.data
               RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.SourceID, n.IsRead, data).
		Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	query := `SELECT id, user_id, type, title, message, source_id, is_read, data, created_at
               FROM notifications
               WHERE user_id = $1
               ORDER BY created_at DESC
               LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for user: %w", err)
	}
	defer rows.Close()

	var records []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.SourceID, &n.IsRead, &data, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("error decoding notification data: %w", err)
			}
		}
		records = append(records, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return records, nil
}

// --- Scheduled notification jobs ---

func (r *PostgresNotificationRepository) CreateJob(ctx context.Context, job *notification.ScheduledJob) error {
	query := `INSERT INTO scheduled_notifications
                   (id, type, source_id, scheduled_for, title, body, source_title, is_all_classes, class_scopes, created_by)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, jobArgs(job)...).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating scheduled notification: %w", err)
	}
	return nil
}

// jobArgs binds job in column order. A nil scope list is stored as an empty
// array, since class_scopes is NOT NULL and pq binds nil slices as NULL.
func jobArgs(job *notification.ScheduledJob) []any {
	scopes := job.ClassScopes
	if scopes == nil {
		scopes = []string{}
	}
	return []any{
		job.ID, job.Type, job.SourceID, job.ScheduledFor, job.Title, job.Body, job.SourceTitle,
		boolPtrValue(job.IsAllClasses), pq.Array(scopes), job.CreatedBy,
	}
}

func (r *PostgresNotificationRepository) ListDueJobs(ctx context.Context, now time.Time) ([]*notification.ScheduledJob, error) {
	query := `SELECT id, type, source_id, scheduled_for, title, body, source_title, is_all_classes, class_scopes, created_by, created_at
               FROM scheduled_notifications
               WHERE scheduled_for <= $1
               ORDER BY scheduled_for ASC`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error fetching due scheduled notifications: %w", err)
	}
	defer rows.Close()

	var jobs []*notification.ScheduledJob
	for rows.Next() {
		job := &notification.ScheduledJob{}
		var allClasses sql.NullBool
		if err := rows.Scan(
			&job.ID, &job.Type, &job.SourceID, &job.ScheduledFor, &job.Title, &job.Body, &job.SourceTitle,
			&allClasses, pq.Array(&job.ClassScopes), &job.CreatedBy, &job.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning scheduled notification row: %w", err)
		}
		job.IsAllClasses = nullBoolPtr(allClasses)
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled notification rows: %w", err)
	}
	return jobs, nil
}

func (r *PostgresNotificationRepository) DeleteJob(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting scheduled notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted scheduled notification: %w", err)
	}
	if affected == 0 {
		return notification.ErrJobNotFound
	}
	return nil
}

// encodeData stores a missing payload as an empty object rather than JSON null.
func encodeData(data map[string]string) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(data)
}
