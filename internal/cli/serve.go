package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/galcurator/galcurator/internal/cmdutil"
)

// newServeCmd starts the long-running process: the Sentinel watcher and
// the scheduler's background jobs, running until a termination signal
// arrives.
func newServeCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the watcher and scheduled jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			terminationSignals := make(chan os.Signal, 1)
			signal.Notify(terminationSignals, cmdutil.TerminationSignals...)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if app.Fuse.Tripped() {
				cmdutil.Warning(fmt.Sprintf("starting with the read-only fuse already tripped: %s", app.Fuse.Reason()))
			}

			if err := app.Sentinel.Start(ctx); err != nil {
				return err
			}
			defer app.Sentinel.Stop()

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return app.Scheduler.Run(groupCtx)
			})

			fmt.Fprintf(app.Out, "Serving %d library root(s); press Ctrl+C to stop\n", len(app.Config.LibraryRoots))

			select {
			case s := <-terminationSignals:
				fmt.Fprintf(app.Out, "Received signal %s, shutting down\n", s)
				cancel()
			case <-groupCtx.Done():
			}

			return group.Wait()
		},
	}
}
