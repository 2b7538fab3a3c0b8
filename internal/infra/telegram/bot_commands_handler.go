// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Registrar is the part of *telebot.Bot used to register command handlers.
type Registrar interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

// RegisterBotCommands lets users discover the chat id they register as a
// push token in the campus app.
func RegisterBotCommands(b Registrar, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		startHelpLogger.WithField("command", "/start").WithField("chat_id", chatID).Info("Processing /start command")
		return c.Send(startMessage(chatID), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/help", func(c telebot.Context) error {
		startHelpLogger.WithField("command", "/help").WithField("chat_id", c.Chat().ID).Info("Processing /help command")
		return c.Send(helpMessage(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func startMessage(chatID int64) string {
	return fmt.Sprintf("Hi! Your chat id is `%d`.\n\nAdd it as a notification token in the campus app settings "+
		"and you will get articles, polls, events and proposal updates here.", chatID)
}

func helpMessage() string {
	var helpText strings.Builder
	helpText.WriteString("Available commands:\n\n")
	helpText.WriteString("`/start`\n - Show the chat id to register in the campus app.\n\n")
	helpText.WriteString("`/help`\n - Show this message.\n\n")
	helpText.WriteString("Which notifications arrive here follows your preferences in the app.")
	return helpText.String()
}
