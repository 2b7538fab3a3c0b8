// internal/app/notification_service.go
package app

import (
	"context"
	"fmt"
	"maps"

	"campus_notifier/internal/domain/content"
	"campus_notifier/internal/domain/notification"
	"campus_notifier/internal/domain/push"

	"github.com/sirupsen/logrus"
)

// FanoutRequest describes one logical notification about one content item.
type FanoutRequest struct {
	Item  content.Item
	Type  notification.Type
	Title string
	Body  string
	// Data is merged into the standard payload (<kind>Id, type, click_action, screen).
	Data map[string]string
}

// FanoutReport summarises the side effects of one Notify call.
type FanoutReport struct {
	Recipients     int
	Written        int
	WriteFailures  int
	Tokens         int
	Batches        []BatchResult
	BroadcastTopic string // empty when no broadcast was attempted
	BroadcastErr   error
}

// NotificationService defines the fan-out pipeline.
type NotificationService interface {
	// Notify resolves recipients, writes in-app records, then pushes.
	// Per-user and per-batch failures are reported, not returned.
	Notify(ctx context.Context, req FanoutRequest) (*FanoutReport, error)
}

// NotificationServiceImpl implements NotificationService.
type NotificationServiceImpl struct {
	resolver   *RecipientResolver
	writer     *NotificationWriter
	dispatcher *PushDispatcher
	logger     *logrus.Entry
}

func NewNotificationServiceImpl(
	resolver *RecipientResolver,
	writer *NotificationWriter,
	dispatcher *PushDispatcher,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		resolver:   resolver,
		writer:     writer,
		dispatcher: dispatcher,
		logger:     logger.WithField("component", "fanout"),
	}
}

// Notify runs the pipeline. Every in-app write finishes before the first push
// so the token set is complete before batching.
func (s *NotificationServiceImpl) Notify(ctx context.Context, req FanoutRequest) (*FanoutReport, error) {
	policy := notification.PolicyFor(req.Type)
	kind := req.Item.Kind
	if kind == "" {
		kind = policy.Kind
	}
	data := payloadData(kind, req)

	logCtx := s.logger.WithFields(logrus.Fields{
		"type":      req.Type,
		"source_id": req.Item.ID,
		"kind":      kind,
	})
	logCtx.Info("Starting notification fan-out")

	resolution, err := s.resolver.Resolve(ctx, req.Item, req.Type)
	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve recipients")
		return nil, fmt.Errorf("failed to resolve recipients for %s %s: %w", req.Type, req.Item.ID, err)
	}

	report := &FanoutReport{
		Recipients: len(resolution.Recipients),
		Tokens:     len(resolution.Tokens),
	}

	writes := s.writer.WriteAll(ctx, resolution.UserIDs(), notification.Notification{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Body,
		SourceID: req.Item.ID,
		Data:     data,
	})
	report.Written = writes.Written()
	report.WriteFailures = writes.Failed()

	msg := push.Message{
		Title:       req.Title,
		Body:        req.Body,
		Data:        data,
		GroupingKey: req.Item.ID,
	}
	report.Batches = s.dispatcher.Dispatch(ctx, resolution.Tokens, msg)

	if policy.ShouldBroadcast(req.Item.IsAllClasses) {
		report.BroadcastTopic = kind.Topic()
		report.BroadcastErr = s.dispatcher.Broadcast(ctx, report.BroadcastTopic, msg)
	}

	logCtx.WithFields(logrus.Fields{
		"recipients":      report.Recipients,
		"written":         report.Written,
		"write_failures":  report.WriteFailures,
		"tokens":          report.Tokens,
		"batches":         len(report.Batches),
		"broadcast_topic": report.BroadcastTopic,
	}).Info("Notification fan-out finished")

	return report, nil
}

func payloadData(kind notification.Kind, req FanoutRequest) map[string]string {
	data := make(map[string]string, len(req.Data)+4)
	maps.Copy(data, req.Data)
	data[kind.IDKey()] = req.Item.ID
	data["type"] = string(req.Type)
	data["click_action"] = notification.ClickAction
	data["screen"] = kind.Screen()
	return data
}
