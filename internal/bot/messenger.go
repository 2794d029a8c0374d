// Package bot connects the relay to Telegram: it polls for commands, dispatches
// them and implements the chat surface deliveries go through.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/internal/fault"
)

var log = logging.MustGetLogger("bot")

// TelegramMessenger sends and deletes messages through the Bot API
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
}

// NewTelegramMessenger wraps an authenticated Bot API client
func NewTelegramMessenger(api *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

// SendText sends a plain text message and returns its message ID
func (m *TelegramMessenger) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	return m.send(ctx, "send_text", tgbotapi.NewMessage(chatID, text))
}

// SendVideo uploads a video file and returns its message ID
func (m *TelegramMessenger) SendVideo(ctx context.Context, chatID int64, path string) (int, error) {
	return m.send(ctx, "send_video", tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path)))
}

// SendPhoto uploads an image file and returns its message ID
func (m *TelegramMessenger) SendPhoto(ctx context.Context, chatID int64, path string) (int, error) {
	return m.send(ctx, "send_photo", tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path)))
}

// Delete removes a message from the chat
func (m *TelegramMessenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return fault.New("delete", fault.KindChat, err)
	}
	if _, err := m.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fault.New("delete", fault.KindChat, fmt.Errorf("message %d: %w", messageID, err))
	}
	return nil
}

func (m *TelegramMessenger) send(ctx context.Context, op string, c tgbotapi.Chattable) (int, error) {
	// The Bot API client has no context support; honour cancellation before the call.
	if err := ctx.Err(); err != nil {
		return 0, fault.New(op, fault.KindChat, err)
	}

	msg, err := m.api.Send(c)
	if err != nil {
		return 0, fault.New(op, fault.KindChat, err)
	}
	return msg.MessageID, nil
}

// botLogger routes the Bot API client's own logging into go-logging
type botLogger struct{}

func (botLogger) Println(v ...interface{}) {
	log.Debug(fmt.Sprintln(v...))
}

func (botLogger) Printf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Connect authenticates against the Bot API
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = debug

	log.Infof("✓ Authorized on Telegram as @%s", api.Self.UserName)
	return api, nil
}
