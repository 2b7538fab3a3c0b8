package scheduler

import (
	"context"
	"fmt"
	"time"

	"campus_notifier/internal/app" // For DueNotificationProcessor interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NotificationScheduler is the timer trigger for deferred notifications.
type NotificationScheduler struct {
	cronEngine *cron.Cron
	processor  app.DueNotificationProcessor
	logger     *logrus.Entry
	cronSpec   string
	timeout    time.Duration
}

func NewNotificationScheduler(
	processor app.DueNotificationProcessor,
	logger *logrus.Entry,
	cronSpec string, // e.g., "*/5 * * * *" (every 5 minutes)
	timeout time.Duration,
) *NotificationScheduler {
	logger = logger.WithField("component", "scheduler")
	return &NotificationScheduler{
		// A tick that fires while the previous sweep still runs is skipped.
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		processor: processor,
		logger:    logger,
		cronSpec:  cronSpec,
		timeout:   timeout,
	}
}

func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runSweep)
	if err != nil {
		return fmt.Errorf("could not add scheduled notification sweep job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Notification scheduler started")
	return nil
}

func (s *NotificationScheduler) runSweep() {
	s.logger.Debug("Cron job triggered for scheduled notification sweep")
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.processor.ProcessDueNotifications(ctx); err != nil {
		s.logger.WithError(err).Error("Error during scheduled notification sweep")
	}
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Notification scheduler gracefully stopped.")
}
