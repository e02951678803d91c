package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTrashCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect or manage the staged-deletion trash directory",
	}

	cmd.AddCommand(newTrashStatusCmd(provider))
	cmd.AddCommand(newTrashEmptyCmd(provider))

	return cmd
}

func newTrashStatusCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show trash size, transaction count, and free disk space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			status, err := app.Trash.GetStatus()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, status)
			return nil
		},
	}
}

func newTrashEmptyCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "empty",
		Short: "Permanently remove everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Trash.Empty(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Trash emptied")
			return nil
		},
	}
}
