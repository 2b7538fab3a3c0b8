// internal/app/trigger_service.go
package app

import (
	"context"
	"errors"
	"time"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/user"

	"github.com/sirupsen/logrus"
)

const unknownAuthorName = "Someone"

// TriggerService reacts to content changes. Each handler runs the fan-out
// in-process; failures are logged and never propagate back to the writer of
// the content.
type TriggerService struct {
	notifier  NotificationService
	schedules *ScheduleService
	contents  content.Repository
	users     user.Repository
	logger    *logrus.Entry
}

func NewTriggerService(
	notifier NotificationService,
	schedules *ScheduleService,
	contents content.Repository,
	users user.Repository,
	logger *logrus.Entry,
) *TriggerService {
	return &TriggerService{
		notifier:  notifier,
		schedules: schedules,
		contents:  contents,
		users:     users,
		logger:    logger.WithField("component", "triggers"),
	}
}

// OnArticleCreated notifies about a new article once it is published.
func (s *TriggerService) OnArticleCreated(ctx context.Context, article *content.Article) {
	if article == nil || !article.IsPublished {
		return
	}
	title, body := articleText(article.Title)
	s.notify(ctx, FanoutRequest{Item: article.Item(), Type: notification.TypeArticle, Title: title, Body: body})
}

// OnPollCreated announces the poll and schedules the closing reminder.
func (s *TriggerService) OnPollCreated(ctx context.Context, poll *content.Poll, now time.Time) {
	if poll == nil {
		return
	}
	title, body := newPollText(poll.Title)
	s.notify(ctx, FanoutRequest{Item: poll.Item(), Type: notification.TypeNewPoll, Title: title, Body: body})

	if poll.ExpiresAt == nil {
		return
	}
	title, body = pollDeadlineText(poll.Title)
	s.scheduleReminder(ctx, &notification.ScheduledJob{
		Type:         notification.JobPollDeadline,
		SourceID:     poll.ID,
		Title:        title,
		Body:         body,
		SourceTitle:  poll.Title,
		IsAllClasses: poll.IsAllClasses,
		ClassScopes:  poll.ClassScopes,
		CreatedBy:    poll.CreatedBy,
	}, *poll.ExpiresAt, now)
}

// OnEventCreated announces the event and schedules the start reminder.
func (s *TriggerService) OnEventCreated(ctx context.Context, event *content.Event, now time.Time) {
	if event == nil {
		return
	}
	title, body := newEventText(event.Title)
	s.notify(ctx, FanoutRequest{Item: event.Item(), Type: notification.TypeNewEvent, Title: title, Body: body})

	if event.StartDate == nil {
		return
	}
	title, body = eventReminderText(event.Title)
	s.scheduleReminder(ctx, &notification.ScheduledJob{
		Type:         notification.JobEventReminder,
		SourceID:     event.ID,
		Title:        title,
		Body:         body,
		SourceTitle:  event.Title,
		IsAllClasses: event.IsAllClasses,
		ClassScopes:  event.ClassScopes,
		CreatedBy:    event.CreatedBy,
	}, *event.StartDate, now)
}

// OnProposalUpdated tells the author about endorsement progress. Milestones
// fire when the percentage lands exactly on 25, 50 or 75; completion fires
// only on the update that crosses the threshold.
func (s *TriggerService) OnProposalUpdated(ctx context.Context, before, after *content.Proposal) {
	if before == nil || after == nil {
		return
	}
	prev, count := len(before.Endorsements), len(after.Endorsements)
	if prev == count {
		return
	}
	required := after.Required()

	switch milestone := count * 100 / required; milestone {
	case 25, 50, 75:
		title, body := milestoneText(after.Title, milestone)
		s.notify(ctx, FanoutRequest{
			Item:  after.Item(),
			Type:  notification.TypeProposalEndorsement,
			Title: title,
			Body:  body,
		})
	}

	if count >= required && prev < required {
		title, body := completionText(after.Title)
		s.notify(ctx, FanoutRequest{
			Item:  after.Item(),
			Type:  notification.TypeProposalEndorsementComplete,
			Title: title,
			Body:  body,
		})
	}
}

// OnReplyCreated notifies the proposal author and thread participants.
// Replies to proposals that no longer exist are dropped.
func (s *TriggerService) OnReplyCreated(ctx context.Context, proposalID string, reply *content.Reply) {
	if reply == nil {
		return
	}
	logCtx := s.logger.WithFields(logrus.Fields{
		"proposal_id": proposalID,
		"reply_id":    reply.ID,
	})

	proposal, err := s.contents.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			logCtx.Info("Proposal not found for reply, skipping notification")
			return
		}
		logCtx.WithError(err).Error("Failed to load proposal for reply")
		return
	}

	author := s.authorName(ctx, reply.AuthorID)
	preview := ReplyPreview(reply.Content)
	title, body := replyText(author, proposal.Title, preview)

	s.notify(ctx, FanoutRequest{
		Item:  proposal.Item(),
		Type:  notification.TypeProposalReply,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"replyId":              reply.ID,
			"replyPreview":         preview,
			"replyAuthor":          author,
			"originalReplyContent": reply.Content,
			"proposalTitle":        proposal.Title,
		},
	})
}

func (s *TriggerService) authorName(ctx context.Context, userID string) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load reply author")
		}
		return unknownAuthorName
	}
	if u.DisplayName == "" {
		return unknownAuthorName
	}
	return u.DisplayName
}

func (s *TriggerService) notify(ctx context.Context, req FanoutRequest) {
	if _, err := s.notifier.Notify(ctx, req); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type":      req.Type,
			"source_id": req.Item.ID,
		}).Error("Triggered notification failed")
	}
}

func (s *TriggerService) scheduleReminder(ctx context.Context, job *notification.ScheduledJob, deadline, now time.Time) {
	if _, err := s.schedules.ScheduleBefore(ctx, job, deadline, now); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type":      job.Type,
			"source_id": job.SourceID,
		}).Error("Failed to schedule reminder")
	}
}
