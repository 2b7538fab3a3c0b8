// internal/domain/notification/repository.go
package notification

import (
	"context"
	"fmt"
	"time"
)

// Repository persists in-app notification records.
type Repository interface {
	// Create stores n under n.UserID and fills n.CreatedAt from the store clock.
	// Writing the same ID twice overwrites the earlier record.
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
}

// JobRepository persists deferred notification jobs.
type JobRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	// ListDueJobs returns jobs with ScheduledFor <= now, oldest first.
	ListDueJobs(ctx context.Context, now time.Time) ([]*ScheduledJob, error)
	DeleteJob(ctx context.Context, id string) error
}

// JobLock lets a sweep claim a job so overlapping sweeps skip it.
// Claims expire after ttl; a lock that cannot be reached should not stop delivery.
type JobLock interface {
	Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
}

// ErrJobNotFound is returned when deleting a job that no longer exists.
var ErrJobNotFound = fmt.Errorf("scheduled notification not found")
