// internal/app/dispatcher.go
package app

import (
	"context"
	"fmt"

	"campus_notifier/internal/domain/push"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one multicast chunk.
type BatchResult struct {
	Size         int
	SuccessCount int
	FailureCount int
	Err          error
}

// Chunk splits tokens into consecutive slices of at most size elements.
// Every token ends up in exactly one chunk.
func Chunk(tokens []string, size int) [][]string {
	if size <= 0 {
		size = push.MaxMulticastTokens
	}
	chunks := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		chunks = append(chunks, tokens[start:end])
	}
	return chunks
}

// PushDispatcher sends a message to a token set in backend-sized chunks.
type PushDispatcher struct {
	client    push.Client
	logger    *logrus.Entry
	batchSize int
}

func NewPushDispatcher(client push.Client, logger *logrus.Entry) *PushDispatcher {
	return &PushDispatcher{
		client:    client,
		logger:    logger.WithField("component", "push_dispatcher"),
		batchSize: push.MaxMulticastTokens,
	}
}

// Dispatch sends msg to tokens, one multicast call per chunk. Chunks run
// concurrently and are all awaited. A failing chunk is logged and reported in
// its BatchResult; it never stops the other chunks.
func (d *PushDispatcher) Dispatch(ctx context.Context, tokens []string, msg push.Message) []BatchResult {
	chunks := Chunk(tokens, d.batchSize)
	results := make([]BatchResult, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			results[i] = d.sendChunk(ctx, chunk, msg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *PushDispatcher) sendChunk(ctx context.Context, chunk []string, msg push.Message) (res BatchResult) {
	res.Size = len(chunk)
	logCtx := d.logger.WithFields(logrus.Fields{
		"chunk_size":   len(chunk),
		"type":         msg.Data["type"],
		"grouping_key": msg.GroupingKey,
	})

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("push backend panicked: %v", r)
			res.SuccessCount = 0
			res.FailureCount = len(chunk)
			logCtx.WithError(res.Err).Error("Error sending push chunk")
		}
	}()

	resp, err := d.client.SendMulticast(ctx, chunk, msg)
	if err != nil {
		res.Err = err
		res.FailureCount = len(chunk)
		logCtx.WithError(err).Error("Error sending push chunk")
		return res
	}
	res.SuccessCount = resp.SuccessCount
	res.FailureCount = resp.FailureCount
	logCtx.WithFields(logrus.Fields{
		"success_count": resp.SuccessCount,
		"failure_count": resp.FailureCount,
	}).Info("Push chunk sent")
	return res
}

// Broadcast sends msg once to every device subscribed to topic.
func (d *PushDispatcher) Broadcast(ctx context.Context, topic string, msg push.Message) error {
	logCtx := d.logger.WithFields(logrus.Fields{
		"topic":        topic,
		"type":         msg.Data["type"],
		"grouping_key": msg.GroupingKey,
	})
	if err := d.client.SendToTopic(ctx, topic, msg); err != nil {
		logCtx.WithError(err).Error("Error sending topic broadcast")
		return fmt.Errorf("failed to broadcast to topic %s: %w", topic, err)
	}
	logCtx.Info("Topic broadcast sent")
	return nil
}
