package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler handles one inbound command
type CommandHandler interface {
	Handle(ctx context.Context, chatID int64, command string) error
}

// Poller receives updates by long polling and hands each command to its own goroutine
type Poller struct {
	api     *tgbotapi.BotAPI
	handler CommandHandler
	timeout int
	wg      sync.WaitGroup
}

// NewPoller creates a long-polling update loop
func NewPoller(api *tgbotapi.BotAPI, handler CommandHandler, timeoutSeconds int) *Poller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &Poller{
		api:     api,
		handler: handler,
		timeout: timeoutSeconds,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight commands to finish
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout

	updates := p.api.GetUpdatesChan(u)
	log.Infof("📡 Polling Telegram for commands")

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			log.Infof("⏳ Waiting for in-flight commands...")
			p.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				p.wg.Wait()
				return nil
			}
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	command := msg.Command()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.handler.Handle(ctx, chatID, command); err != nil {
			log.Errorf("Command /%s from chat %d failed: %v", command, chatID, err)
		}
	}()
}
