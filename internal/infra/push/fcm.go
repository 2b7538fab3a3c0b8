package push

import (
	"context"
	"fmt"

	"campus_notifier/internal/domain/push"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// messagingClient is the part of *messaging.Client the backend uses.
type messagingClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMClient implements push.Client with Firebase Cloud Messaging.
type FCMClient struct {
	messaging messagingClient
}

// NewFCMClient builds a messaging client from a service account file. An
// empty path falls back to application default credentials.
func NewFCMClient(ctx context.Context, projectID, credentialsFile string) (*FCMClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	fbApp, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := fbApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase messaging client: %w", err)
	}
	return &FCMClient{messaging: client}, nil
}

func (c *FCMClient) SendMulticast(ctx context.Context, tokens []string, msg push.Message) (*push.BatchResponse, error) {
	resp, err := c.messaging.SendEachForMulticast(ctx, multicastMessage(tokens, msg))
	if err != nil {
		return nil, fmt.Errorf("fcm multicast failed: %w", err)
	}
	return &push.BatchResponse{SuccessCount: resp.SuccessCount, FailureCount: resp.FailureCount}, nil
}

func (c *FCMClient) SendToTopic(ctx context.Context, topic string, msg push.Message) error {
	m := &messaging.Message{
		Topic:        topic,
		Notification: notificationOf(msg),
		Data:         msg.Data,
		Android:      androidConfig(msg),
		APNS:         apnsConfig(msg),
	}
	if _, err := c.messaging.Send(ctx, m); err != nil {
		return fmt.Errorf("fcm topic send failed: %w", err)
	}
	return nil
}

func multicastMessage(tokens []string, msg push.Message) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: notificationOf(msg),
		Data:         msg.Data,
		Android:      androidConfig(msg),
		APNS:         apnsConfig(msg),
	}
}

func notificationOf(msg push.Message) *messaging.Notification {
	return &messaging.Notification{Title: msg.Title, Body: msg.Body}
}

// androidConfig groups notifications about one item under a single tag.
func androidConfig(msg push.Message) *messaging.AndroidConfig {
	if msg.GroupingKey == "" {
		return nil
	}
	return &messaging.AndroidConfig{
		Notification: &messaging.AndroidNotification{Tag: msg.GroupingKey},
	}
}

// apnsConfig collapses notifications about one item on iOS.
func apnsConfig(msg push.Message) *messaging.APNSConfig {
	if msg.GroupingKey == "" {
		return nil
	}
	return &messaging.APNSConfig{
		Headers: map[string]string{"apns-collapse-id": msg.GroupingKey},
	}
}
