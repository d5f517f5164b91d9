// Package dialogue holds the per-chat conversation state machine.
// Transition is pure: it never talks to the transport or the ledger, it only
// describes what the caller should do next.
package dialogue

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"NewsRelay/internal/domain"
)

// Menu button captions and commands recognized in any state.
const (
	ButtonPreview = "Preview news"
	ButtonPublish = "Publish to channel"
	ButtonDelete  = "Delete news"
	ButtonReport  = "Report"

	CommandStart  = "/start"
	CommandMenu   = "/menu"
	CommandReport = "/report"
)

// State is the position of a chat inside the dialogue.
type State int

const (
	Idle State = iota
	AwaitingSource
	AwaitingParameter
	AwaitingLink
	AwaitingReportQuery
)

func (s State) String() string {
	switch s {
	case AwaitingSource:
		return "awaiting_source"
	case AwaitingParameter:
		return "awaiting_parameter"
	case AwaitingLink:
		return "awaiting_link"
	case AwaitingReportQuery:
		return "awaiting_report_query"
	default:
		return "idle"
	}
}

// Session is the single pending slot kept per chat.
type Session struct {
	State         State
	PendingAction domain.Action
	PendingSource string
}

// EffectKind tells the caller what to do after a transition.
type EffectKind int

const (
	ShowMenu EffectKind = iota
	AskSource
	AskCount
	AskLink
	AskReportQuery
	RunDispatch
	RunDelete
	RunReport
	Reject
)

// Reason explains a Reject effect.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnknownSource
	ReasonBadCount
	ReasonEmptyLink
	ReasonReportUsage
)

// Effect is the side effect requested by a transition.
type Effect struct {
	Kind   EffectKind
	Action domain.Action
	Source string
	Count  int
	Link   string
	Filter domain.ReportFilter
	Reason Reason
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	lastPattern = regexp.MustCompile(`^(?i:last)\s+(\d+)$`)
)

// Machine validates inputs against the configured source ids.
type Machine struct {
	sources map[string]struct{}
}

// NewMachine builds a machine that accepts the given source ids.
func NewMachine(sources []string) *Machine {
	m := &Machine{sources: make(map[string]struct{}, len(sources))}
	for _, id := range sources {
		m.sources[id] = struct{}{}
	}
	return m
}

// Transition advances s by one user input.
func (m *Machine) Transition(s Session, input string) (Session, Effect) {
	text := strings.TrimSpace(input)

	if next, eff, ok := topLevel(text); ok {
		return next, eff
	}

	switch s.State {
	case AwaitingSource:
		if _, ok := m.sources[text]; !ok {
			return Session{}, Effect{Kind: Reject, Reason: ReasonUnknownSource}
		}
		return Session{State: AwaitingParameter, PendingAction: s.PendingAction, PendingSource: text},
			Effect{Kind: AskCount, Action: s.PendingAction, Source: text}

	case AwaitingParameter:
		count, ok := ParseCount(text)
		if !ok {
			return Session{}, Effect{Kind: Reject, Reason: ReasonBadCount}
		}
		return Session{}, Effect{Kind: RunDispatch, Action: s.PendingAction, Source: s.PendingSource, Count: count}

	case AwaitingLink:
		if text == "" {
			return Session{}, Effect{Kind: Reject, Reason: ReasonEmptyLink}
		}
		return Session{}, Effect{Kind: RunDelete, Action: domain.ActionDelete, Link: text}

	case AwaitingReportQuery:
		query := strings.TrimSpace(strings.TrimPrefix(text, CommandReport))
		filter, ok := ParseReportQuery(query)
		if !ok {
			return Session{}, Effect{Kind: Reject, Reason: ReasonReportUsage}
		}
		return Session{}, Effect{Kind: RunReport, Action: domain.ActionReport, Filter: filter}

	default:
		return Session{}, Effect{Kind: ShowMenu}
	}
}

// topLevel handles inputs that start over regardless of what is pending.
func topLevel(text string) (Session, Effect, bool) {
	switch text {
	case ButtonPreview:
		return Session{State: AwaitingSource, PendingAction: domain.ActionPreview},
			Effect{Kind: AskSource, Action: domain.ActionPreview}, true
	case ButtonPublish:
		return Session{State: AwaitingSource, PendingAction: domain.ActionPublish},
			Effect{Kind: AskSource, Action: domain.ActionPublish}, true
	case ButtonDelete:
		return Session{State: AwaitingLink, PendingAction: domain.ActionDelete},
			Effect{Kind: AskLink, Action: domain.ActionDelete}, true
	case ButtonReport:
		return Session{State: AwaitingReportQuery, PendingAction: domain.ActionReport},
			Effect{Kind: AskReportQuery, Action: domain.ActionReport}, true
	}

	command, args := splitCommand(text)
	switch command {
	case CommandStart, CommandMenu:
		return Session{}, Effect{Kind: ShowMenu}, true
	case CommandReport:
		if args == "" {
			return Session{}, Effect{Kind: RunReport, Action: domain.ActionReport, Filter: domain.RecentReport()}, true
		}
		filter, ok := ParseReportQuery(args)
		if !ok {
			return Session{}, Effect{Kind: Reject, Reason: ReasonReportUsage}, true
		}
		return Session{}, Effect{Kind: RunReport, Action: domain.ActionReport, Filter: filter}, true
	}

	return Session{}, Effect{}, false
}

// splitCommand returns the command (without a @botname suffix) and its arguments.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, args, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

// ParseCount accepts a positive integer, "latest" (one item) or "all".
func ParseCount(text string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "latest":
		return 1, true
	case "all":
		return domain.AllItems, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseReportQuery accepts "YYYY-MM-DD" or "last N".
func ParseReportQuery(text string) (domain.ReportFilter, bool) {
	text = strings.TrimSpace(text)

	if datePattern.MatchString(text) {
		day, err := time.Parse("2006-01-02", text)
		if err != nil {
			return domain.ReportFilter{}, false
		}
		return domain.DateReport(day), true
	}

	if match := lastPattern.FindStringSubmatch(text); match != nil {
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			return domain.ReportFilter{}, false
		}
		return domain.LastReport(n), true
	}

	return domain.ReportFilter{}, false
}
