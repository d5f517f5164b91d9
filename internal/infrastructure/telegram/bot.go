package telegram

import (
	"context"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource is the long-polling half of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler consumes one operator text for a chat.
type Handler interface {
	Handle(ctx context.Context, chat, text string) error
}

// Bot feeds incoming operator messages into a Handler.
type Bot struct {
	updates     UpdateSource
	handler     Handler
	allowed     map[int64]struct{}
	pollTimeout int
	logger      *slog.Logger
}

// NewBot builds the update loop. An empty allowed list accepts every user.
func NewBot(updates UpdateSource, handler Handler, allowed []int64, pollTimeout int, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	set := make(map[int64]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &Bot{updates: updates, handler: handler, allowed: set, pollTimeout: pollTimeout, logger: log}
}

// Run processes updates one at a time until ctx is cancelled or the channel closes.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.updates.GetUpdatesChan(cfg)

	b.logger.Info("bot started", "poll_timeout", b.pollTimeout, "allowed_users", len(b.allowed))

	for {
		select {
		case <-ctx.Done():
			b.updates.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	if !b.isAllowed(msg.From) {
		b.logger.Warn("message from unauthorized user ignored", "chat", msg.Chat.ID)
		return
	}

	chat := strconv.FormatInt(msg.Chat.ID, 10)
	if err := b.handler.Handle(ctx, chat, msg.Text); err != nil {
		b.logger.Error("handle message", "chat", chat, "error", err)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if len(b.allowed) == 0 {
		return true
	}
	if from == nil {
		return false
	}
	_, ok := b.allowed[from.ID]
	return ok
}
