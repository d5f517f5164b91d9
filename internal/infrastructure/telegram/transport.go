package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/pkg/logger"
)

// BotAPI is the subset of *tgbotapi.BotAPI the transport needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Transport delivers messages through the Telegram Bot API.
// Audiences are numeric chat ids or @channel usernames.
type Transport struct {
	api       BotAPI
	keyboards Keyboards
}

var _ ports.Transport = (*Transport)(nil)

// Connect authenticates the bot and routes the client library's logs into log.
func Connect(token string, log *slog.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(logger.New(log, "telegram")); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return api, nil
}

// NewTransport wraps api; sources populate the source selection keyboard.
func NewTransport(api BotAPI, sources []string) *Transport {
	return &Transport{api: api, keyboards: NewKeyboards(sources)}
}

// Send posts msg and returns the Telegram message id.
func (t *Transport) Send(ctx context.Context, msg ports.Message) (domain.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cfg, err := t.messageConfig(msg)
	if err != nil {
		return 0, err
	}
	sent, err := t.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send to %s: %w", msg.Audience, err)
	}
	return domain.MessageRef(sent.MessageID), nil
}

// Delete removes a previously sent message.
func (t *Transport) Delete(ctx context.Context, audience string, ref domain.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref == 0 {
		return fmt.Errorf("%w: empty message ref", domain.ErrInvalidInput)
	}

	var cfg tgbotapi.DeleteMessageConfig
	if id, ok := parseChatID(audience); ok {
		cfg = tgbotapi.NewDeleteMessage(id, int(ref))
	} else if isChannelName(audience) {
		cfg = tgbotapi.DeleteMessageConfig{ChannelUsername: strings.TrimSpace(audience), MessageID: int(ref)}
	} else {
		return fmt.Errorf("%w: audience %q", domain.ErrInvalidInput, audience)
	}

	if _, err := t.api.Request(cfg); err != nil {
		return fmt.Errorf("delete message %d in %s: %w", ref, audience, err)
	}
	return nil
}

func (t *Transport) messageConfig(msg ports.Message) (tgbotapi.MessageConfig, error) {
	var cfg tgbotapi.MessageConfig
	if id, ok := parseChatID(msg.Audience); ok {
		cfg = tgbotapi.NewMessage(id, msg.Text)
	} else if isChannelName(msg.Audience) {
		cfg = tgbotapi.NewMessageToChannel(strings.TrimSpace(msg.Audience), msg.Text)
	} else {
		return cfg, fmt.Errorf("%w: audience %q", domain.ErrInvalidInput, msg.Audience)
	}

	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	if markup := t.keyboards.Markup(msg.Menu); markup != nil {
		cfg.ReplyMarkup = markup
	}
	return cfg, nil
}

// parseChatID parses a numeric chat id, returning ok=false for channel usernames.
func parseChatID(audience string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(audience), 10, 64)
	return id, err == nil
}

func isChannelName(audience string) bool {
	audience = strings.TrimSpace(audience)
	return len(audience) > 1 && strings.HasPrefix(audience, "@")
}
