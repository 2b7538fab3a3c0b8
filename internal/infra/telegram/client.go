// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"campus_notifier/internal/domain/push"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot the push backend uses.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements push.Client on top of a Telegram bot. Device
// tokens are chat ids; topics map to channel chats.
type TelebotAdapter struct {
	bot      Sender
	channels map[string]int64
	logger   *logrus.Entry
}

func NewTelebotAdapter(b Sender, channels map[string]int64, logger *logrus.Entry) *TelebotAdapter {
	return &TelebotAdapter{
		bot:      b,
		channels: channels,
		logger:   logger.WithField("component", "telegram_push"),
	}
}

// SendMulticast messages every chat in tokens one by one. Tokens that are
// not chat ids and chats that reject the message count as failures.
func (tba *TelebotAdapter) SendMulticast(ctx context.Context, tokens []string, msg push.Message) (*push.BatchResponse, error) {
	if len(tokens) > push.MaxMulticastTokens {
		return nil, fmt.Errorf("multicast of %d tokens exceeds the limit of %d", len(tokens), push.MaxMulticastTokens)
	}

	text := formatMessage(msg)
	resp := &push.BatchResponse{}
	for i, token := range tokens {
		if err := ctx.Err(); err != nil {
			resp.FailureCount += len(tokens) - i
			return resp, nil
		}
		chatID, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			tba.logger.WithField("token", token).Debug("Skipping token that is not a Telegram chat id")
			resp.FailureCount++
			continue
		}
		if err := tba.send(chatID, text); err != nil {
			tba.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to deliver Telegram message")
			resp.FailureCount++
			continue
		}
		resp.SuccessCount++
	}
	return resp, nil
}

// SendToTopic posts msg to the channel configured for topic. Topics without
// a channel are skipped.
func (tba *TelebotAdapter) SendToTopic(ctx context.Context, topic string, msg push.Message) error {
	chatID, ok := tba.channels[topic]
	if !ok {
		tba.logger.WithField("topic", topic).Debug("No Telegram channel configured for topic")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tba.send(chatID, formatMessage(msg))
}

func (tba *TelebotAdapter) send(chatID int64, text string) error {
	options := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
	_, err := tba.bot.Send(telebot.ChatID(chatID), text, options)
	return err
}

// formatMessage renders a bold title over the body.
func formatMessage(msg push.Message) string {
	var b strings.Builder
	if msg.Title != "" {
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(msg.Title))
		b.WriteString("</b>")
	}
	if msg.Body != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(html.EscapeString(msg.Body))
	}
	return b.String()
}
