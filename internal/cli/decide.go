package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/galcurator/galcurator/pkg/canonicalize"
	"github.com/galcurator/galcurator/pkg/store"
)

// newDecideCmd groups the narrow command surface from pkg/decision:
// accepting, rejecting, and detaching clusters, plus direct canonical
// mutation.
func newDecideCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Resolve a suggested cluster or edit canonical game data",
	}

	cmd.AddCommand(newAcceptClusterCmd(provider))
	cmd.AddCommand(newRejectClusterCmd(provider))
	cmd.AddCommand(newDetachInstanceCmd(provider))
	cmd.AddCommand(newUpdateCanonicalCmd(provider))
	cmd.AddCommand(newSetCuratedCmd(provider))

	return cmd
}

func newAcceptClusterCmd(provider *AppProvider) *cobra.Command {
	var overrideCanonicalID string

	cmd := &cobra.Command{
		Use:   "accept-cluster <cluster-id>",
		Short: "Promote a suggested cluster into a canonical game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			canonicalID, err := app.Decision.AcceptCluster(cmd.Context(), args[0], nil, canonicalize.Overrides{CanonicalID: overrideCanonicalID})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Accepted %s as canonical game %s\n", args[0], canonicalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&overrideCanonicalID, "canonical-id", "", "merge into an existing canonical game instead of minting a new one")
	return cmd
}

func newRejectClusterCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "reject-cluster <cluster-id>",
		Short: "Reject a suggested cluster and return its members to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Decision.RejectCluster(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Rejected %s\n", args[0])
			return nil
		},
	}
}

func newDetachInstanceCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "detach-instance <path>",
		Short: "Detach a local instance from its canonical game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Decision.DetachInstance(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Detached %s\n", args[0])
			return nil
		},
	}
}

func newUpdateCanonicalCmd(provider *AppProvider) *cobra.Command {
	var title, metadata, coverURL string

	cmd := &cobra.Command{
		Use:   "update-canonical <canonical-id>",
		Short: "Patch a canonical game's display fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			patch := store.CanonicalPatch{}
			if cmd.Flags().Changed("title") {
				patch.DisplayTitle = &title
			}
			if cmd.Flags().Changed("metadata") {
				patch.MetadataSnapshot = &metadata
			}
			if cmd.Flags().Changed("cover-url") {
				patch.CoverImageURL = &coverURL
			}
			if err := app.Decision.UpdateCanonical(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Updated %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new display title")
	cmd.Flags().StringVar(&metadata, "metadata", "", "new metadata snapshot (JSON)")
	cmd.Flags().StringVar(&coverURL, "cover-url", "", "new cover image URL")
	return cmd
}

func newSetCuratedCmd(provider *AppProvider) *cobra.Command {
	var curated bool

	cmd := &cobra.Command{
		Use:   "set-curated <canonical-id> [canonical-id...]",
		Short: "Flip the curated flag for one or more canonical games",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := app.Decision.SetCurated(cmd.Context(), args, curated); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Updated is_curated=%t for %d game(s)\n", curated, len(args))
			return nil
		},
	}
	cmd.Flags().BoolVar(&curated, "curated", true, "value to set is_curated to")
	return cmd
}
