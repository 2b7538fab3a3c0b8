package push

import (
	"context"

	"campus_notifier/internal/domain/push"

	"github.com/sirupsen/logrus"
)

// LogClient implements push.Client by logging every send. Used in
// development and when no push backend is configured.
type LogClient struct {
	logger *logrus.Entry
}

func NewLogClient(logger *logrus.Entry) *LogClient {
	return &LogClient{logger: logger.WithField("component", "log_push")}
}

func (c *LogClient) SendMulticast(ctx context.Context, tokens []string, msg push.Message) (*push.BatchResponse, error) {
	c.logger.WithFields(logrus.Fields{
		"tokens":       len(tokens),
		"title":        msg.Title,
		"grouping_key": msg.GroupingKey,
		"data":         msg.Data,
	}).Info("Push multicast")
	return &push.BatchResponse{SuccessCount: len(tokens)}, nil
}

func (c *LogClient) SendToTopic(ctx context.Context, topic string, msg push.Message) error {
	c.logger.WithFields(logrus.Fields{
		"topic":        topic,
		"title":        msg.Title,
		"grouping_key": msg.GroupingKey,
	}).Info("Push topic message")
	return nil
}
