package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrganizeCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Preview, execute, or roll back a reorganization plan",
	}

	cmd.AddCommand(newOrganizePreviewCmd(provider))
	cmd.AddCommand(newOrganizeExecuteCmd(provider))
	cmd.AddCommand(newOrganizeRollbackCmd(provider))

	return cmd
}

func newOrganizePreviewCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <src-dir> <dest-root>",
		Short: "Classify each child of src-dir and print the proposed moves",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			proposer, err := app.Proposer()
			if err != nil {
				return err
			}
			plan, err := proposer.Preview(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Plan %s (%d move(s)):\n", plan.ID, len(plan.Moves))
			for _, m := range plan.Moves {
				fmt.Fprintf(app.Out, "  [%s] %s -> %s\n", m.Category, m.Src, m.Dest)
			}
			return nil
		},
	}
}

func newOrganizeExecuteCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "execute <src-dir> <dest-root>",
		Short: "Preview and immediately execute a reorganization plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			proposer, err := app.Proposer()
			if err != nil {
				return err
			}
			plan, err := proposer.Preview(args[0], args[1])
			if err != nil {
				return err
			}
			executor, err := app.Executor()
			if err != nil {
				return err
			}
			if err := executor.Execute(plan); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Executed plan %s: %d move(s) committed\n", plan.ID, len(plan.Moves))
			return nil
		},
	}
}

func newOrganizeRollbackCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <plan-id>",
		Short: "Reverse every committed move recorded for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			executor, err := app.Executor()
			if err != nil {
				return err
			}
			if err := executor.Rollback(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Rolled back plan %s\n", args[0])
			return nil
		},
	}
}
