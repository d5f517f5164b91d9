package domain

import (
	"fmt"
	"time"
)

// DefaultReportLimit is used when the report command has no arguments.
const DefaultReportLimit = 10

// ReportKind enumerates supported ledger report filters.
type ReportKind int

const (
	ReportRecent ReportKind = iota
	ReportDate
	ReportLast
)

// ReportFilter selects ledger entries for a report.
type ReportFilter struct {
	Kind  ReportKind
	Limit int
	Day   time.Time
}

// RecentReport returns the filter used by a bare report command.
func RecentReport() ReportFilter {
	return ReportFilter{Kind: ReportRecent, Limit: DefaultReportLimit}
}

// DateReport selects every entry published on the given calendar day.
func DateReport(day time.Time) ReportFilter {
	return ReportFilter{Kind: ReportDate, Day: day}
}

// LastReport selects the n most recent entries.
func LastReport(n int) ReportFilter {
	return ReportFilter{Kind: ReportLast, Limit: n}
}

func (f ReportFilter) String() string {
	switch f.Kind {
	case ReportDate:
		return "date " + f.Day.Format("2006-01-02")
	case ReportLast:
		return fmt.Sprintf("last %d", f.Limit)
	default:
		return fmt.Sprintf("recent %d", f.Limit)
	}
}
