package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/user"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestScheduleBefore_Boundary(t *testing.T) {
	tests := []struct {
		name      string
		until     time.Duration
		wantSaved bool
	}{
		{name: "deadline in 23h is too close", until: 23 * time.Hour, wantSaved: false},
		{name: "deadline in exactly 24h is too close", until: 24 * time.Hour, wantSaved: false},
		{name: "deadline in the past", until: -time.Hour, wantSaved: false},
		{name: "deadline in 48h", until: 48 * time.Hour, wantSaved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := newFakeJobRepo()
			svc := NewScheduleService(jobs, &mockNotifier{}, nil, testLogger())

			deadline := sweepNow.Add(tt.until)
			saved, err := svc.ScheduleBefore(context.Background(), &notification.ScheduledJob{
				Type:     notification.JobPollDeadline,
				SourceID: "poll-1",
			}, deadline, sweepNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSaved, saved)

			stored := jobs.all()
			if !tt.wantSaved {
				assert.Empty(t, stored)
				return
			}
			require.Len(t, stored, 1)
			assert.Equal(t, deadline.Add(-24*time.Hour), stored[0].ScheduledFor)
			assert.NotEmpty(t, stored[0].ID)
			assert.False(t, stored[0].CreatedAt.IsZero())
		})
	}
}

func TestSchedule_RejectsUnknownType(t *testing.T) {
	svc := NewScheduleService(newFakeJobRepo(), &mockNotifier{}, nil, testLogger())
	err := svc.Schedule(context.Background(), &notification.ScheduledJob{Type: "pollResults", SourceID: "p"})
	require.Error(t, err)
}

func TestSweep_DeliversDueJobsAndDeletesThem(t *testing.T) {
	due := &notification.ScheduledJob{
		ID:           "due",
		Type:         notification.JobEventReminder,
		SourceID:     "event-1",
		ScheduledFor: sweepNow.Add(-time.Minute),
		Title:        "Event Reminder",
		Body:         `"Hackathon" will start in 24 hours.`,
		SourceTitle:  "Hackathon",
		IsAllClasses: boolPtr(false),
		ClassScopes:  []string{"2026"},
		CreatedBy:    "organiser",
	}
	future := &notification.ScheduledJob{ID: "future", Type: notification.JobPollDeadline, SourceID: "poll-9", ScheduledFor: sweepNow.Add(time.Hour)}
	jobs := newFakeJobRepo(due, future)

	users := &fakeUserRepo{users: []*user.User{
		newUser("organiser", "2026", "tok-org"),
		newUser("in", "2026", "tok-in"),
		newUser("out", "2027", "tok-out"),
	}}
	records := &fakeNotificationRepo{}
	client := &fakePushClient{}
	svc := NewScheduleService(jobs, newPipeline(users, records, client), nil, testLogger())

	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{Due: 1, Delivered: 1}, report)

	// The reminder reaches everyone in scope, the creator included, but not other classes.
	assert.Equal(t, []string{"in", "organiser"}, records.userIDs())
	require.Len(t, client.multicasts, 1)
	assert.ElementsMatch(t, []string{"tok-in", "tok-org"}, client.multicasts[0])
	assert.Empty(t, client.topics)
	assert.Equal(t, "event-1", client.messages[0].Data["eventId"])
	assert.Equal(t, "eventReminder", client.messages[0].Data["type"])

	remaining := jobs.all()
	require.Len(t, remaining, 1)
	assert.Equal(t, "future", remaining[0].ID)
}

func TestSweep_FanoutErrorKeepsJob(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "j1", Type: notification.JobPollDeadline, SourceID: "p1", ScheduledFor: sweepNow})
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(req FanoutRequest) bool {
		return req.Type == notification.TypePollDeadline && req.Item.ID == "p1" && req.Item.Kind == notification.KindPoll
	})).Return(nil, errors.New("users unavailable")).Once()

	svc := NewScheduleService(jobs, notifier, nil, testLogger())
	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, jobs.all(), 1)
	notifier.AssertExpectations(t)
}

func TestSweep_UnknownTypeIsLeftInPlace(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "odd", Type: "pollResults", SourceID: "p1", ScheduledFor: sweepNow})
	notifier := &mockNotifier{}

	svc := NewScheduleService(jobs, notifier, nil, testLogger())
	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, jobs.all(), 1)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSweep_ClaimedJobsAreSkipped(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "j1", Type: notification.JobPollDeadline, SourceID: "p1", ScheduledFor: sweepNow})
	lock := &fakeLock{claimed: map[string]bool{"j1": true}}
	notifier := &mockNotifier{}

	svc := NewScheduleService(jobs, notifier, lock, testLogger())
	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSweep_LockErrorStillDelivers(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "j1", Type: notification.JobPollDeadline, SourceID: "p1", ScheduledFor: sweepNow})
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(&FanoutReport{}, nil).Once()

	svc := NewScheduleService(jobs, notifier, &fakeLock{err: errors.New("redis down")}, testLogger())
	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Delivered)
	assert.Empty(t, jobs.all())
}

func TestSweep_JobRemovedByOverlappingSweep(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "j1", Type: notification.JobPollDeadline, SourceID: "p1", ScheduledFor: sweepNow})
	notifier := &mockNotifier{}
	// Another sweep finishes the same job while this one is fanning out.
	notifier.On("Notify", mock.Anything, mock.Anything).Return(&FanoutReport{}, nil).Once().
		Run(func(mock.Arguments) { _ = jobs.DeleteJob(context.Background(), "j1") })

	log, hook := logtest.NewNullLogger()
	svc := NewScheduleService(jobs, notifier, nil, logrus.NewEntry(log))
	report, err := svc.Sweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Delivered)
	assert.Empty(t, jobs.all())

	var removed *logrus.Entry
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
		if entry.Message == "Scheduled job already removed by an overlapping sweep" {
			removed = entry
		}
	}
	require.NotNil(t, removed)
	assert.Equal(t, logrus.InfoLevel, removed.Level)
	assert.Equal(t, "j1", removed.Data["job_id"])
}

func TestSweep_ListFailure(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.listErr = errors.New("timeout")
	svc := NewScheduleService(jobs, &mockNotifier{}, nil, testLogger())

	_, err := svc.Sweep(context.Background(), sweepNow)
	require.Error(t, err)
}

func TestProcessDueNotifications_UsesClock(t *testing.T) {
	jobs := newFakeJobRepo(&notification.ScheduledJob{ID: "j1", Type: notification.JobPollDeadline, SourceID: "p1", ScheduledFor: sweepNow})
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(&FanoutReport{}, nil).Once()

	svc := NewScheduleService(jobs, notifier, nil, testLogger())
	svc.now = func() time.Time { return sweepNow.Add(time.Second) }

	require.NoError(t, svc.ProcessDueNotifications(context.Background()))
	assert.Empty(t, jobs.all())
	notifier.AssertExpectations(t)
}
