package push

import "context"

// MaxMulticastTokens is the hard per-call token limit of the push backend.
const MaxMulticastTokens = 500

// Message is one push payload, shared by every chunk of a fan-out.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
	// GroupingKey lets clients collapse repeated pushes about the same item.
	GroupingKey string
}

// BatchResponse summarises one multicast call.
type BatchResponse struct {
	SuccessCount int
	FailureCount int
}

// Client defines the push backend.
// This keeps the fan-out independent of the concrete messaging provider.
type Client interface {
	// SendMulticast sends msg to at most MaxMulticastTokens device tokens.
	SendMulticast(ctx context.Context, tokens []string, msg Message) (*BatchResponse, error)
	// SendToTopic sends msg to every device subscribed to topic.
	SendToTopic(ctx context.Context, topic string, msg Message) error
}
