package dialogue

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"NewsRelay/internal/domain"
)

func testMachine() *Machine {
	return NewMachine([]string{"Habr", "RIA", "Lenta"})
}

func TestPublishFlow(t *testing.T) {
	t.Parallel()

	m := testMachine()

	s, eff := m.Transition(Session{}, ButtonPublish)
	if s.State != AwaitingSource || eff.Kind != AskSource || eff.Action != domain.ActionPublish {
		t.Fatalf("after publish button: %+v %+v", s, eff)
	}

	s, eff = m.Transition(s, "Lenta")
	wantSession := Session{State: AwaitingParameter, PendingAction: domain.ActionPublish, PendingSource: "Lenta"}
	if diff := cmp.Diff(wantSession, s); diff != "" {
		t.Fatalf("after source (-want +got):\n%s", diff)
	}
	if eff.Kind != AskCount {
		t.Fatalf("expected AskCount, got %+v", eff)
	}

	s, eff = m.Transition(s, " 5 ")
	if s.State != Idle {
		t.Fatalf("expected idle after run, got %v", s.State)
	}
	wantEffect := Effect{Kind: RunDispatch, Action: domain.ActionPublish, Source: "Lenta", Count: 5}
	if diff := cmp.Diff(wantEffect, eff); diff != "" {
		t.Fatalf("dispatch effect (-want +got):\n%s", diff)
	}
}

func TestPreviewShorthandCounts(t *testing.T) {
	t.Parallel()

	m := testMachine()
	for input, want := range map[string]int{"latest": 1, "ALL": domain.AllItems, "12": 12} {
		s := Session{State: AwaitingParameter, PendingAction: domain.ActionPreview, PendingSource: "Habr"}
		_, eff := m.Transition(s, input)
		if eff.Kind != RunDispatch || eff.Count != want || eff.Action != domain.ActionPreview {
			t.Fatalf("input %q: unexpected effect %+v", input, eff)
		}
	}
}

func TestInvalidInputsAbortToIdle(t *testing.T) {
	t.Parallel()

	m := testMachine()
	tests := []struct {
		name   string
		state  Session
		input  string
		reason Reason
	}{
		{"unknown source", Session{State: AwaitingSource, PendingAction: domain.ActionPublish}, "habr", ReasonUnknownSource},
		{"zero count", Session{State: AwaitingParameter, PendingAction: domain.ActionPublish, PendingSource: "RIA"}, "0", ReasonBadCount},
		{"negative count", Session{State: AwaitingParameter, PendingAction: domain.ActionPublish, PendingSource: "RIA"}, "-3", ReasonBadCount},
		{"text count", Session{State: AwaitingParameter, PendingAction: domain.ActionPreview, PendingSource: "RIA"}, "five", ReasonBadCount},
		{"empty link", Session{State: AwaitingLink, PendingAction: domain.ActionDelete}, "   ", ReasonEmptyLink},
		{"bad report", Session{State: AwaitingReportQuery, PendingAction: domain.ActionReport}, "yesterday", ReasonReportUsage},
		{"impossible date", Session{State: AwaitingReportQuery, PendingAction: domain.ActionReport}, "2024-02-30", ReasonReportUsage},
		{"last zero", Session{State: AwaitingReportQuery, PendingAction: domain.ActionReport}, "last 0", ReasonReportUsage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, eff := m.Transition(tc.state, tc.input)
			if s != (Session{}) {
				t.Fatalf("expected reset session, got %+v", s)
			}
			if eff.Kind != Reject || eff.Reason != tc.reason {
				t.Fatalf("expected reject %v, got %+v", tc.reason, eff)
			}
		})
	}
}

func TestIdleUnknownTextShowsMenu(t *testing.T) {
	t.Parallel()

	s, eff := testMachine().Transition(Session{}, "hello")
	if s != (Session{}) || eff.Kind != ShowMenu {
		t.Fatalf("unexpected %+v %+v", s, eff)
	}
}

func TestNewActionCancelsPending(t *testing.T) {
	t.Parallel()

	m := testMachine()
	pending := Session{State: AwaitingParameter, PendingAction: domain.ActionPublish, PendingSource: "Habr"}

	s, eff := m.Transition(pending, ButtonDelete)
	if s.State != AwaitingLink || s.PendingSource != "" || eff.Kind != AskLink {
		t.Fatalf("delete button did not replace pending state: %+v %+v", s, eff)
	}

	s, eff = m.Transition(pending, CommandStart)
	if s != (Session{}) || eff.Kind != ShowMenu {
		t.Fatalf("start did not reset: %+v %+v", s, eff)
	}
}

func TestDeleteFlow(t *testing.T) {
	t.Parallel()

	m := testMachine()
	s, _ := m.Transition(Session{}, ButtonDelete)
	s, eff := m.Transition(s, " https://habr.com/ru/news/1/ ")
	if s.State != Idle || eff.Kind != RunDelete || eff.Link != "https://habr.com/ru/news/1/" {
		t.Fatalf("unexpected %+v %+v", s, eff)
	}
}

func TestReportFlowAndCommand(t *testing.T) {
	t.Parallel()

	m := testMachine()

	s, eff := m.Transition(Session{}, ButtonReport)
	if s.State != AwaitingReportQuery || eff.Kind != AskReportQuery {
		t.Fatalf("unexpected %+v %+v", s, eff)
	}

	_, eff = m.Transition(s, "2024-01-02")
	want := domain.DateReport(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
	if eff.Kind != RunReport || !eff.Filter.Day.Equal(want.Day) || eff.Filter.Kind != domain.ReportDate {
		t.Fatalf("date query: %+v", eff)
	}

	_, eff = m.Transition(s, "/report last 3")
	if eff.Kind != RunReport || eff.Filter != domain.LastReport(3) {
		t.Fatalf("command in report state: %+v", eff)
	}

	_, eff = m.Transition(Session{}, "/report")
	if eff.Kind != RunReport || eff.Filter != domain.RecentReport() {
		t.Fatalf("bare report command: %+v", eff)
	}

	_, eff = m.Transition(Session{}, "/report@NewsRelayBot Last 2")
	if eff.Kind != RunReport || eff.Filter != domain.LastReport(2) {
		t.Fatalf("report with bot suffix: %+v", eff)
	}

	s, eff = m.Transition(Session{State: AwaitingSource, PendingAction: domain.ActionPreview}, "/report whenever")
	if s != (Session{}) || eff.Kind != Reject || eff.Reason != ReasonReportUsage {
		t.Fatalf("bad report command: %+v %+v", s, eff)
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	if _, ok := ParseCount(""); ok {
		t.Fatal("empty count accepted")
	}
	if n, ok := ParseCount("3"); !ok || n != 3 {
		t.Fatalf("ParseCount(3) = %d %v", n, ok)
	}
}
