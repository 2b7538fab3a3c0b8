// internal/app/schedule_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultClaimTTL = 10 * time.Minute

// DueNotificationProcessor is what the timer trigger calls on every tick.
type DueNotificationProcessor interface {
	ProcessDueNotifications(ctx context.Context) error
}

// SweepReport counts what happened to the jobs found due by one sweep.
type SweepReport struct {
	Due       int
	Delivered int
	Skipped   int // claimed by another sweep or of unknown type
	Failed    int // fan-out failed; the job stays for the next sweep
}

type jobOutcome int

const (
	jobDelivered jobOutcome = iota
	jobSkipped
	jobFailed
)

// ScheduleService stores deferred notifications and delivers them when due.
type ScheduleService struct {
	jobs     notification.JobRepository
	notifier NotificationService
	lock     notification.JobLock // optional
	logger   *logrus.Entry
	claimTTL time.Duration
	now      func() time.Time
	newID    func() string
}

func NewScheduleService(
	jobs notification.JobRepository,
	notifier NotificationService,
	lock notification.JobLock,
	logger *logrus.Entry,
) *ScheduleService {
	return &ScheduleService{
		jobs:     jobs,
		notifier: notifier,
		lock:     lock,
		logger:   logger.WithField("component", "scheduler_store"),
		claimTTL: defaultClaimTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Schedule persists job. The store fills CreatedAt.
func (s *ScheduleService) Schedule(ctx context.Context, job *notification.ScheduledJob) error {
	if job.ID == "" {
		job.ID = s.newID()
	}
	if _, ok := job.Type.NotificationType(); !ok {
		return fmt.Errorf("unknown scheduled notification type %q", job.Type)
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to schedule %s for %s: %w", job.Type, job.SourceID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"job_id":        job.ID,
		"type":          job.Type,
		"source_id":     job.SourceID,
		"scheduled_for": job.ScheduledFor,
	}).Info("Scheduled deferred notification")
	return nil
}

// ScheduleBefore schedules job ReminderLead ahead of deadline. Nothing is
// stored when that moment is not strictly after now; there is no catch-up
// notification for windows that already passed.
func (s *ScheduleService) ScheduleBefore(ctx context.Context, job *notification.ScheduledJob, deadline, now time.Time) (bool, error) {
	dueAt := deadline.Add(-notification.ReminderLead)
	if !dueAt.After(now) {
		s.logger.WithFields(logrus.Fields{
			"type":      job.Type,
			"source_id": job.SourceID,
			"deadline":  deadline,
		}).Info("Reminder window already passed, not scheduling")
		return false, nil
	}
	job.ScheduledFor = dueAt
	if err := s.Schedule(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// ProcessDueNotifications sweeps with the current time.
func (s *ScheduleService) ProcessDueNotifications(ctx context.Context) error {
	report, err := s.Sweep(ctx, s.now())
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"due":       report.Due,
		"delivered": report.Delivered,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	}).Info("Processed scheduled notifications")
	return nil
}

// Sweep delivers every job due at now. Jobs run concurrently and
// independently; all of them finish before Sweep returns.
func (s *ScheduleService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	due, err := s.jobs.ListDueJobs(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled notifications: %w", err)
	}

	report := &SweepReport{Due: len(due)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, job := range due {
		g.Go(func() error {
			outcome := s.processJob(ctx, job)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case jobDelivered:
				report.Delivered++
			case jobSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return report, nil
}

func (s *ScheduleService) processJob(ctx context.Context, job *notification.ScheduledJob) jobOutcome {
	logCtx := s.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"type":      job.Type,
		"source_id": job.SourceID,
	})

	notifType, ok := job.Type.NotificationType()
	if !ok {
		logCtx.Warn("Unknown scheduled notification type, leaving job in place")
		return jobSkipped
	}

	if s.lock != nil {
		claimed, err := s.lock.Claim(ctx, job.ID, s.claimTTL)
		switch {
		case err != nil:
			logCtx.WithError(err).Warn("Could not claim job, processing without claim")
		case !claimed:
			logCtx.Info("Job already claimed by another sweep, skipping")
			return jobSkipped
		}
	}

	_, err := s.notifier.Notify(ctx, FanoutRequest{
		Item:  snapshotItem(job, notifType),
		Type:  notifType,
		Title: job.Title,
		Body:  job.Body,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to deliver scheduled notification, keeping job")
		return jobFailed
	}

	// Delivery and deletion are not atomic: a crash here re-delivers on the next sweep.
	if err := s.jobs.DeleteJob(ctx, job.ID); err != nil {
		if errors.Is(err, notification.ErrJobNotFound) {
			logCtx.Info("Scheduled job already removed by an overlapping sweep")
		} else {
			logCtx.WithError(err).Error("Delivered scheduled notification but failed to delete job")
		}
	}
	return jobDelivered
}

// snapshotItem rebuilds the content item from the scope captured at schedule time.
func snapshotItem(job *notification.ScheduledJob, t notification.Type) content.Item {
	return content.Item{
		ID:           job.SourceID,
		Kind:         notification.PolicyFor(t).Kind,
		Title:        job.SourceTitle,
		AuthorID:     job.CreatedBy,
		IsAllClasses: job.IsAllClasses,
		ClassScopes:  job.ClassScopes,
	}
}
