package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"NewsRelay/internal/domain"
)

func newReportCommand(st *rootState) *cobra.Command {
	var (
		date string
		last int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := reportFilter(date, last, cmd.Flags().Changed("last"))
			if err != nil {
				return err
			}
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Pipeline().Report(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no published news for this period")
				return nil
			}

			loc := st.cfg.Scheduler.Location()
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.PublishedAt.In(loc).Format("2006-01-02 15:04:05"),
					e.Source,
					e.Title,
					e.Link,
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Published", "Source", "Title", "Link"}, rows)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar day YYYY-MM-DD")
	cmd.Flags().IntVar(&last, "last", 0, "most recent N entries")
	cmd.MarkFlagsMutuallyExclusive("date", "last")
	return cmd
}

func reportFilter(date string, last int, lastSet bool) (domain.ReportFilter, error) {
	switch {
	case date != "":
		day, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return domain.ReportFilter{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, date)
		}
		return domain.DateReport(day), nil
	case lastSet:
		if last <= 0 {
			return domain.ReportFilter{}, fmt.Errorf("%w: --last must be positive", domain.ErrInvalidInput)
		}
		return domain.LastReport(last), nil
	default:
		return domain.RecentReport(), nil
	}
}
