package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"NewsRelay/internal/dialogue"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// Replies shown to the operator.
const (
	msgMenu          = "Choose an action:"
	msgAskSource     = "Choose a news source:"
	msgAskCount      = "Enter the number of news items (or \"latest\" / \"all\"):"
	msgAskLink       = "Enter the link of the news item to delete:"
	msgAskReport     = "Enter the report query: YYYY-MM-DD or last N"
	msgFetchFailed   = "Could not fetch news. Try again later."
	msgStorageFailed = "Storage error, the operation was aborted."
	msgUnknownSource = "Error: choose a source from the list."
	msgBadCount      = "Error: enter a positive number, \"latest\" or \"all\"."
	msgEmptyLink     = "Error: send the link of the news item."
	msgNotFound      = "Error: news item not found."
	msgReportUsage   = "Usage: /report YYYY-MM-DD or /report last N"
	msgEmptyReport   = "No published news for this period."
	msgDeleted       = "✅ News item deleted from the channel and the ledger!"
	msgDeletedWarn   = "⚠️ News item removed from the ledger, but the channel post could not be deleted."
	msgInvalidInput  = "Error: invalid input."
	msgFailed        = "Something went wrong, try again."
)

// Conversation keeps one dialogue session per chat and executes the effects of each transition.
type Conversation struct {
	machine   *dialogue.Machine
	pipeline  *Pipeline
	transport ports.Transport
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]dialogue.Session
}

// NewConversation wires the dialogue machine to the pipeline and transport.
func NewConversation(pipeline *Pipeline, transport ports.Transport, log *slog.Logger) *Conversation {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Conversation{
		machine:   dialogue.NewMachine(pipeline.Sources()),
		pipeline:  pipeline,
		transport: transport,
		logger:    log,
		sessions:  map[string]dialogue.Session{},
	}
}

// Session returns the pending state for chat.
func (c *Conversation) Session(chat string) dialogue.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[chat]
}

// Handle advances the chat's dialogue with one inbound text and sends the replies.
// The returned error only reports replies the transport failed to deliver.
func (c *Conversation) Handle(ctx context.Context, chat, text string) error {
	c.mu.Lock()
	prev := c.sessions[chat]
	next, effect := c.machine.Transition(prev, text)
	if next.State == dialogue.Idle {
		delete(c.sessions, chat)
	} else {
		c.sessions[chat] = next
	}
	c.mu.Unlock()

	c.logger.Debug("dialogue transition", "chat", chat, "from", prev.State, "to", next.State, "effect", effect.Kind)
	return c.execute(ctx, chat, effect)
}

func (c *Conversation) execute(ctx context.Context, chat string, effect dialogue.Effect) error {
	switch effect.Kind {
	case dialogue.AskSource:
		return c.reply(ctx, chat, msgAskSource, ports.MenuSources)
	case dialogue.AskCount:
		return c.reply(ctx, chat, msgAskCount, ports.MenuRemove)
	case dialogue.AskLink:
		return c.reply(ctx, chat, msgAskLink, ports.MenuRemove)
	case dialogue.AskReportQuery:
		return c.reply(ctx, chat, msgAskReport, ports.MenuRemove)
	case dialogue.Reject:
		return c.reply(ctx, chat, rejectMessage(effect.Reason), ports.MenuMain)
	case dialogue.RunDispatch:
		return c.runDispatch(ctx, chat, effect)
	case dialogue.RunDelete:
		return c.runDelete(ctx, chat, effect.Link)
	case dialogue.RunReport:
		return c.runReport(ctx, chat, effect.Filter)
	default:
		return c.reply(ctx, chat, msgMenu, ports.MenuMain)
	}
}

func (c *Conversation) runDispatch(ctx context.Context, chat string, effect dialogue.Effect) error {
	outcome, err := c.pipeline.Dispatch(ctx, DispatchRequest{
		Action:   effect.Action,
		Source:   effect.Source,
		Count:    effect.Count,
		Audience: chat,
	})
	if err != nil {
		c.logger.Warn("dispatch failed", "chat", chat, "action", effect.Action, "source", effect.Source, "error", err)
		return c.reply(ctx, chat, errorMessage(err), ports.MenuMain)
	}

	if effect.Action == domain.ActionPreview {
		return c.reply(ctx, chat, "✅ Done!", ports.MenuMain)
	}
	summary := fmt.Sprintf("✅ Done! Published %d, skipped %d, failed %d.", outcome.Published, outcome.Skipped, outcome.Failed)
	return c.reply(ctx, chat, summary, ports.MenuMain)
}

func (c *Conversation) runDelete(ctx context.Context, chat, link string) error {
	result, err := c.pipeline.Delete(ctx, link)
	if err != nil {
		c.logger.Warn("delete failed", "chat", chat, "link", link, "error", err)
		return c.reply(ctx, chat, errorMessage(err), ports.MenuMain)
	}
	if result.Warning != nil {
		return c.reply(ctx, chat, msgDeletedWarn, ports.MenuMain)
	}
	return c.reply(ctx, chat, msgDeleted, ports.MenuMain)
}

func (c *Conversation) runReport(ctx context.Context, chat string, filter domain.ReportFilter) error {
	entries, err := c.pipeline.Report(ctx, filter)
	if err != nil {
		c.logger.Warn("report failed", "chat", chat, "filter", filter.String(), "error", err)
		return c.reply(ctx, chat, errorMessage(err), ports.MenuMain)
	}
	if len(entries) == 0 {
		return c.reply(ctx, chat, msgEmptyReport, ports.MenuMain)
	}

	var errs []error
	for _, page := range RenderReport(entries) {
		if _, err := c.transport.Send(ctx, ports.Message{Audience: chat, Text: page, HTML: true, Menu: ports.MenuMain}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Conversation) reply(ctx context.Context, chat, text string, menu ports.Menu) error {
	if _, err := c.transport.Send(ctx, ports.Message{Audience: chat, Text: text, Menu: menu}); err != nil {
		return fmt.Errorf("reply to %s: %w", chat, err)
	}
	return nil
}

func rejectMessage(reason dialogue.Reason) string {
	switch reason {
	case dialogue.ReasonUnknownSource:
		return msgUnknownSource
	case dialogue.ReasonBadCount:
		return msgBadCount
	case dialogue.ReasonEmptyLink:
		return msgEmptyLink
	case dialogue.ReasonReportUsage:
		return msgReportUsage
	default:
		return msgMenu
	}
}

// errorMessage maps pipeline errors to operator replies; storage failures are checked first.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrStorage):
		return msgStorageFailed
	case errors.Is(err, domain.ErrNoContent), errors.Is(err, domain.ErrFetch):
		return msgFetchFailed
	case errors.Is(err, domain.ErrUnknownSource):
		return msgUnknownSource
	case errors.Is(err, domain.ErrNotFound):
		return msgNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return msgInvalidInput
	default:
		return msgFailed
	}
}
