// Package cli contains the newsrelay command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"NewsRelay/internal/app"
	"NewsRelay/internal/config"
	"NewsRelay/internal/logging"
)

// Version is overridden at build time.
var Version = "dev"

type rootState struct {
	cfgFile string
	verbose bool

	cfg     config.Config
	logger  *slog.Logger
	appOpts []app.Option
}

// NewRootCommand builds the command tree. appOpts are passed to every application instance.
func NewRootCommand(appOpts ...app.Option) *cobra.Command {
	st := &rootState{appOpts: appOpts}

	root := &cobra.Command{
		Use:   "newsrelay",
		Short: "Harvest news sites and publish them to a Telegram channel",
		Long: `newsrelay scrapes configured news sources, previews candidates and
publishes new items to a Telegram channel exactly once.

Example usage:
  newsrelay serve                        # Run the operator bot
  newsrelay publish --source Habr -n 5   # Publish up to 5 new items
  newsrelay preview --source Lenta       # Show candidates and their status
  newsrelay report --last 20             # List recent publications
  newsrelay delete https://ria.ru/x.html # Retract a publication`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "YAML config file (default $NEWSRELAY_CONFIG)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCommand(st),
		newPublishCommand(st),
		newPreviewCommand(st),
		newReportCommand(st),
		newDeleteCommand(st),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (st *rootState) init(logOut io.Writer) error {
	st.cfg = config.LoadFrom(st.cfgFile)

	level := st.cfg.Logging.Level
	if st.verbose {
		level = "debug"
	}
	st.logger = logging.NewTo(logOut, level)

	st.logger.Debug("configuration loaded",
		"database_driver", st.cfg.Database.Driver,
		"sources", st.cfg.SourceIDs(),
		"scheduler_enabled", st.cfg.Scheduler.Enabled)
	return nil
}

// requireTelegram fails early when the channel cannot be reached, unless a transport is injected.
func (st *rootState) requireTelegram() error {
	if len(st.appOpts) > 0 {
		return nil
	}
	if err := st.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (st *rootState) open(ctx context.Context) (*app.Application, error) {
	a, err := app.New(ctx, st.cfg, st.logger, st.appOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}
