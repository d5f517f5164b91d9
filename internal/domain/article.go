package domain

import "time"

// Candidate is an article found on a source page during one harvest.
type Candidate struct {
	Title string
	Link  string
}

// MessageRef identifies a message previously sent through the transport.
// Zero means the reference is unknown.
type MessageRef int64

// LedgerEntry is a published article persisted for deduplication and audit.
type LedgerEntry struct {
	Link        string
	Title       string
	Source      string
	MessageRef  MessageRef
	PublishedAt time.Time
}

// Action enumerates what the operator asked the bot to do.
type Action string

const (
	ActionPreview Action = "preview"
	ActionPublish Action = "publish"
	ActionDelete  Action = "delete"
	ActionReport  Action = "report"
)

// AllItems disables truncation when passed as a count.
const AllItems = 0

// Outcome summarizes a single dispatch run.
type Outcome struct {
	Attempted int
	Skipped   int
	Published int
	Failed    int
}
