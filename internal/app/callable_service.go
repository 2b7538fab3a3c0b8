// internal/app/callable_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotFound        = fmt.Errorf("not found")
	ErrInternal        = fmt.Errorf("internal error")
)

// CallableError carries a client-safe message and one of the callable
// sentinel errors as its kind.
type CallableError struct {
	Kind    error
	Message string
}

func (e *CallableError) Error() string { return e.Message }

func (e *CallableError) Unwrap() error { return e.Kind }

func invalidArgument(msg string) error {
	return &CallableError{Kind: ErrInvalidArgument, Message: msg}
}

func notFound(msg string) error {
	return &CallableError{Kind: ErrNotFound, Message: msg}
}

// CallableResult is returned to the caller on success.
type CallableResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ArticleNotificationRequest struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Type      string `json:"type"`
}

type PollNotificationRequest struct {
	PollID string `json:"pollId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Type   string `json:"type"`
}

type ProposalNotificationRequest struct {
	ProposalID           string `json:"proposalId"`
	Title                string `json:"title"`
	Body                 string `json:"body"`
	Type                 string `json:"type"`
	ReplyPreview         string `json:"replyPreview,omitempty"`
	ReplyAuthor          string `json:"replyAuthor,omitempty"`
	ReplyID              string `json:"replyId,omitempty"`
	OriginalReplyContent string `json:"originalReplyContent,omitempty"`
	ProposalTitle        string `json:"proposalTitle,omitempty"`
}

type EventNotificationRequest struct {
	EventID string `json:"eventId"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Type    string `json:"type"`
}

// CallableService implements the externally invocable notification requests.
// Validation and lookup happen before any side effect.
type CallableService struct {
	notifier NotificationService
	contents content.Repository
	logger   *logrus.Entry
}

func NewCallableService(notifier NotificationService, contents content.Repository, logger *logrus.Entry) *CallableService {
	return &CallableService{
		notifier: notifier,
		contents: contents,
		logger:   logger.WithField("component", "callables"),
	}
}

func (s *CallableService) SendArticleNotification(ctx context.Context, req ArticleNotificationRequest) (*CallableResult, error) {
	if blank(req.ArticleID, req.Title, req.Body) {
		return nil, invalidArgument("Article ID, title, and body are required")
	}
	t, err := resolveType(req.Type, notification.TypeArticle, notification.KindArticle)
	if err != nil {
		return nil, err
	}

	article, err := s.contents.GetArticle(ctx, req.ArticleID)
	if err != nil {
		return nil, s.lookupError("Article", req.ArticleID, err)
	}

	return s.run(ctx, FanoutRequest{Item: article.Item(), Type: t, Title: req.Title, Body: req.Body},
		"Article notifications sent successfully")
}

func (s *CallableService) SendPollNotification(ctx context.Context, req PollNotificationRequest) (*CallableResult, error) {
	if blank(req.PollID, req.Title, req.Body, req.Type) {
		return nil, invalidArgument("Poll ID, title, body, and type are required")
	}
	t, err := resolveType(req.Type, "", notification.KindPoll)
	if err != nil {
		return nil, err
	}

	poll, err := s.contents.GetPoll(ctx, req.PollID)
	if err != nil {
		return nil, s.lookupError("Poll", req.PollID, err)
	}

	return s.run(ctx, FanoutRequest{Item: poll.Item(), Type: t, Title: req.Title, Body: req.Body},
		"Poll notifications sent successfully")
}

// SendProposalNotification also carries the optional reply context so that
// reply pushes open the right thread.
func (s *CallableService) SendProposalNotification(ctx context.Context, req ProposalNotificationRequest) (*CallableResult, error) {
	if blank(req.ProposalID, req.Title, req.Body, req.Type) {
		return nil, invalidArgument("Proposal ID, title, body, and type are required")
	}
	t, err := resolveType(req.Type, "", notification.KindProposal)
	if err != nil {
		return nil, err
	}

	proposal, err := s.contents.GetProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, s.lookupError("Proposal", req.ProposalID, err)
	}

	data := make(map[string]string)
	for key, value := range map[string]string{
		"replyPreview":         req.ReplyPreview,
		"replyAuthor":          req.ReplyAuthor,
		"replyId":              req.ReplyID,
		"originalReplyContent": req.OriginalReplyContent,
		"proposalTitle":        req.ProposalTitle,
	} {
		if value != "" {
			data[key] = value
		}
	}

	return s.run(ctx, FanoutRequest{Item: proposal.Item(), Type: t, Title: req.Title, Body: req.Body, Data: data},
		"Proposal notifications sent successfully")
}

func (s *CallableService) SendEventNotification(ctx context.Context, req EventNotificationRequest) (*CallableResult, error) {
	if blank(req.EventID, req.Title, req.Body) {
		return nil, invalidArgument("Event ID, title, and body are required")
	}
	t, err := resolveType(req.Type, notification.TypeNewEvent, notification.KindEvent)
	if err != nil {
		return nil, err
	}

	event, err := s.contents.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, s.lookupError("Event", req.EventID, err)
	}

	return s.run(ctx, FanoutRequest{Item: event.Item(), Type: t, Title: req.Title, Body: req.Body},
		"Event notifications sent successfully")
}

func (s *CallableService) run(ctx context.Context, req FanoutRequest, message string) (*CallableResult, error) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"type":      req.Type,
		"source_id": req.Item.ID,
	})
	logCtx.Info("Sending notification on request")

	if _, err := s.notifier.Notify(ctx, req); err != nil {
		logCtx.WithError(err).Error("Requested notification failed")
		return nil, &CallableError{Kind: ErrInternal, Message: "Internal server error"}
	}
	return &CallableResult{Success: true, Message: message}, nil
}

func (s *CallableService) lookupError(what, id string, err error) error {
	if errors.Is(err, content.ErrNotFound) {
		return notFound(what + " not found")
	}
	s.logger.WithError(err).WithField("source_id", id).Errorf("Failed to load %s", strings.ToLower(what))
	return &CallableError{Kind: ErrInternal, Message: "Internal server error"}
}

// resolveType parses raw, applying fallback when raw is empty. The type must
// belong to kind so that audience and payload match the loaded document.
func resolveType(raw string, fallback notification.Type, kind notification.Kind) (notification.Type, error) {
	t := notification.Type(raw)
	if t == "" {
		t = fallback
	}
	if !t.Valid() || notification.PolicyFor(t).Kind != kind {
		return "", invalidArgument(fmt.Sprintf("Unsupported %s notification type %q", kind, raw))
	}
	return t, nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
