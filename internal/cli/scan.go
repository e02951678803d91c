package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/galcurator/galcurator/pkg/kinds"
)

func newScanCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Control the filesystem watcher (Sentinel)",
	}

	cmd.AddCommand(newScanTriggerCmd(provider))
	cmd.AddCommand(newScanSetModeCmd(provider))

	return cmd
}

func newScanTriggerCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Force an immediate full scan of every library root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Sentinel.TriggerScan(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Scan triggered")
			return nil
		},
	}
}

func newScanSetModeCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set-mode <realtime|scheduled|manual>",
		Short: "Switch the Sentinel's active watch mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			var mode kinds.WatchMode
			if err := mode.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}
			if !mode.Supported() {
				return fmt.Errorf("unsupported watch mode %q", args[0])
			}
			if err := app.Sentinel.Configure(mode); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Watch mode set to %s\n", mode)
			return nil
		},
	}
}
