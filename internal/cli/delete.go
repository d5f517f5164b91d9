package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete LINK",
		Short: "Retract a published item and remove it from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.requireTelegram(); err != nil {
				return err
			}
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Pipeline().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Warning != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "removed from ledger; %v\n", res.Warning)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
