package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure <environment>",
		Short: "Install Docker on the provisioned instance",
		Long: `Configure a provisioned instance for running the tracker stack.

This command waits for cloud-init to finish, then installs Docker and
the compose plugin through the rendered Ansible playbooks.`,
		Example: `  trackerforge configure dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.svc.Configure(ctx, name)
				if result != nil {
					fmt.Println(environment.Display(result))
				}
				return err
			})
		},
	}
	return cmd
}

func newReleaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <environment>",
		Short: "Deploy the tracker stack to the instance",
		Long: `Release the tracker stack onto a configured instance.

This command renders the Docker Compose stack and the tracker
configuration, uploads them to the instance, and validates the stack
with docker compose without starting any service.`,
		Example: `  trackerforge release dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.svc.Release(ctx, name)
				if result != nil {
					fmt.Println(environment.Display(result))
				}
				return err
			})
		},
	}
	return cmd
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <environment>",
		Short: "Start the tracker stack",
		Long: `Start the released tracker stack and wait for its services.

The environment is marked running before the services start, so an
interrupted or failed start is visible as run_failed rather than as a
stale released state.`,
		Example: `  trackerforge run dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.svc.Run(ctx, name)
				if result != nil {
					fmt.Println(environment.Display(result))
				}
				return err
			})
		},
	}
	return cmd
}
