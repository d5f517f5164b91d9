package cli

import (
	"github.com/spf13/cobra"
)

func newServeCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operator bot, auto-publishing and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.requireTelegram(); err != nil {
				return err
			}
			a, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(cmd.Context())
		},
	}
}
