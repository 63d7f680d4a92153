package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store"
	"github.com/JonMunkholm/priceingest/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var inbox, outDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process CSV files dropped into an inbox directory",
		Long: `Watches the inbox and runs every new or changed CSV file through the
pipeline. Records priced above the threshold go to
"<out>/<name> - above-threshold.csv" and rejected lines to
"<out>/<name> - rejected.csv"; processed inputs move to <inbox>/processed.
The out directory must differ from the inbox. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := watch.Options{
				Inbox:     a.cfg.Watch.Inbox,
				OutDir:    a.cfg.Watch.OutDir,
				Debounce:  a.cfg.Watch.Debounce,
				Threshold: a.cfg.Ingest.Threshold,
				Persist:   a.cfg.Ingest.Persist,
			}
			if cmd.Flags().Changed("inbox") {
				opts.Inbox = inbox
			}
			if cmd.Flags().Changed("out") {
				opts.OutDir = outDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.watch(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&inbox, "inbox", "", "directory to watch (default from config: inbox)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for results (default from config: out)")
	return cmd
}

func (a *app) watch(ctx context.Context, opts watch.Options) error {
	products, err := store.Open(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	defer products.Close()

	w := watch.New(core.NewService(products, a.logger), opts, a.logger)
	return w.Run(ctx)
}
