package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLibraryCmd(provider *AppProvider) *cobra.Command {
	var pageSize, offset int

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List the read-only library view (canonical games, suggested clusters, orphans)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			entries, err := app.View.Page(cmd.Context(), pageSize, offset)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(app.Out, "%-10s %-36s %-40s instances=%d\n", e.EntryType, e.EntryID, e.DisplayTitle, e.InstanceCount)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "entries per page (default 50)")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}
