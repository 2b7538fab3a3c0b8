// internal/app/writer.go
package app

import (
	"context"
	"fmt"
	"maps"

	"campus_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// WriteResult is the outcome of storing one user's record.
type WriteResult struct {
	UserID         string
	NotificationID string
	Err            error
}

// WriteReport collects per-user results. Failures are independent of each other.
type WriteReport struct {
	Results []WriteResult
}

func (r WriteReport) Written() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r WriteReport) Failed() int {
	return len(r.Results) - r.Written()
}

// NotificationWriter stores in-app notification records.
type NotificationWriter struct {
	repo        notification.Repository
	logger      *logrus.Entry
	concurrency int
	newID       func() string
}

func NewNotificationWriter(repo notification.Repository, logger *logrus.Entry, concurrency int) *NotificationWriter {
	if concurrency <= 0 {
		concurrency = defaultFanoutConcurrency
	}
	return &NotificationWriter{
		repo:        repo,
		logger:      logger.WithField("component", "notification_writer"),
		concurrency: concurrency,
		newID:       uuid.NewString,
	}
}

// Write stores n for userID and returns the record id. A fresh id is minted
// when n.ID is empty; passing an existing id makes a retry overwrite instead
// of duplicate.
func (w *NotificationWriter) Write(ctx context.Context, userID string, n notification.Notification) (string, error) {
	if n.ID == "" {
		n.ID = w.newID()
	}
	n.UserID = userID
	n.IsRead = false
	n.Data = maps.Clone(n.Data)

	if err := w.repo.Create(ctx, &n); err != nil {
		return "", fmt.Errorf("failed to write notification for user %s: %w", userID, err)
	}
	return n.ID, nil
}

// WriteAll writes one record per user from template, concurrently. Every
// record gets its own id. Failures are logged and reported, never aborting
// the remaining writes.
func (w *NotificationWriter) WriteAll(ctx context.Context, userIDs []string, template notification.Notification) WriteReport {
	template.ID = ""
	results := make([]WriteResult, len(userIDs))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			id, err := w.Write(ctx, userID, template)
			results[i] = WriteResult{UserID: userID, NotificationID: id, Err: err}
			if err != nil {
				w.logger.WithError(err).WithFields(logrus.Fields{
					"user_id":   userID,
					"type":      template.Type,
					"source_id": template.SourceID,
				}).Error("Failed to write in-app notification")
			}
			return nil
		})
	}
	_ = g.Wait()

	return WriteReport{Results: results}
}
