package ports

import (
	"context"
	"time"

	"NewsRelay/internal/domain"
)

// Extractor turns a configured source into ordered article candidates.
type Extractor interface {
	Extract(ctx context.Context, sourceID string, maxCount int) ([]domain.Candidate, error)
	Sources() []string
}

// Ledger remembers which links were already published to the channel.
type Ledger interface {
	Contains(ctx context.Context, link string) (bool, error)
	Record(ctx context.Context, entry domain.LedgerEntry) (bool, error)
	LookupForDelete(ctx context.Context, link string) (domain.MessageRef, bool, error)
	Remove(ctx context.Context, link string) (bool, error)
	Report(ctx context.Context, filter domain.ReportFilter) ([]domain.LedgerEntry, error)
}

// Menu names the reply keyboard attached to an outgoing message.
type Menu int

const (
	MenuNone Menu = iota
	MenuMain
	MenuSources
	MenuRemove
)

// Message is an outgoing transport message.
type Message struct {
	Audience string
	Text     string
	HTML     bool
	Menu     Menu
}

// Transport delivers messages to chats and the channel.
type Transport interface {
	Send(ctx context.Context, msg Message) (domain.MessageRef, error)
	Delete(ctx context.Context, audience string, ref domain.MessageRef) error
}

// Metrics records dispatch statistics.
type Metrics interface {
	ItemDispatched(source string, action domain.Action, result string)
	FetchFailed(source string)
	EntryRemoved()
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
