package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"NewsRelay/internal/dialogue"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/usecase"
)

func newPublishCommand(st *rootState) *cobra.Command {
	var (
		source string
		count  string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish new items from a source to the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, ok := dialogue.ParseCount(count)
			if !ok {
				return fmt.Errorf("%w: count %q", domain.ErrInvalidInput, count)
			}
			if err := st.requireTelegram(); err != nil {
				return err
			}
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Pipeline().Dispatch(cmd.Context(), usecase.DispatchRequest{
				Action: domain.ActionPublish,
				Source: source,
				Count:  n,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d, skipped %d, failed %d\n", out.Published, out.Skipped, out.Failed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source id")
	cmd.Flags().StringVarP(&count, "count", "n", "5", "number of items, \"latest\" or \"all\"")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newPreviewCommand(st *rootState) *cobra.Command {
	var (
		source string
		count  string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List a source's current candidates with their ledger status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, ok := dialogue.ParseCount(count)
			if !ok {
				return fmt.Errorf("%w: count %q", domain.ErrInvalidInput, count)
			}
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Pipeline().Inspect(cmd.Context(), source, n)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no candidates")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for i, item := range items {
				status := "new"
				if item.Published {
					status = "published"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), status, item.Candidate.Title, item.Candidate.Link})
			}
			return renderTable(cmd.OutOrStdout(), []string{"#", "Status", "Title", "Link"}, rows)
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source id")
	cmd.Flags().StringVarP(&count, "count", "n", "all", "number of items, \"latest\" or \"all\"")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
