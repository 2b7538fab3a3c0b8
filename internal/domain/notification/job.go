// internal/domain/notification/job.go
package notification

import "time"

// JobType is the kind of deferred notification a scheduled job delivers.
type JobType string

const (
	JobPollDeadline  JobType = JobType(TypePollDeadline)
	JobEventReminder JobType = JobType(TypeEventReminder)
)

// ReminderLead is how long before a deadline or start the deferred push goes out.
const ReminderLead = 24 * time.Hour

// ScheduledJob is a deferred notification waiting for its due time.
// Corresponds to the 'scheduled_notifications' table. The scope fields are a
// snapshot taken at schedule time so later edits or deletes of the content
// item do not change who receives the reminder.
type ScheduledJob struct {
	ID           string
	Type         JobType
	SourceID     string
	ScheduledFor time.Time
	Title        string
	Body         string
	SourceTitle  string
	IsAllClasses *bool
	ClassScopes  []string
	CreatedBy    string
	CreatedAt    time.Time
}

// NotificationType maps the job to the notification type it fans out as.
func (j JobType) NotificationType() (Type, bool) {
	switch j {
	case JobPollDeadline:
		return TypePollDeadline, true
	case JobEventReminder:
		return TypeEventReminder, true
	default:
		return "", false
	}
}
