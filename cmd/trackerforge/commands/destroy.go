package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newDestroyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy <environment>",
		Short: "Tear down the environment's infrastructure",
		Long: `Destroy the environment's provisioned infrastructure.

Registered instances are left running; only infrastructure this tool
provisioned is torn down. The persisted record survives in the
destroyed state so the history remains inspectable; use
'trackerforge purge' to remove everything.

A failed destroy lands in destroy_failed and can simply be retried.`,
		Example: `  trackerforge destroy dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.svc.Destroy(ctx, name)
				if result != nil {
					fmt.Println(environment.Display(result))
				}
				return err
			})
		},
	}
	return cmd
}

func newPurgeCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge <environment>",
		Short: "Remove every trace of an environment",
		Long: `Purge an environment: its persisted record, its run history and its
data and build directories.

Purge does not touch remote infrastructure. Destroy the environment
first unless the infrastructure is managed elsewhere.`,
		Example: `  trackerforge purge dev --force`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			if !force {
				return fmt.Errorf("purge is destructive; re-run with --force to confirm")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.svc.Purge(ctx, name)
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm the purge")

	return cmd
}
