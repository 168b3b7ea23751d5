package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newProvisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision <environment>",
		Short: "Provision the environment's infrastructure",
		Long: `Provision the infrastructure for a created environment.

This command:
  - Renders the OpenTofu templates for the environment's provider
  - Runs tofu init, validate, plan and apply
  - Reads back the instance address
  - Renders the Ansible inventory against it
  - Waits for SSH connectivity and cloud-init completion

On failure the environment ends up in provision_failed with a trace
file describing what went wrong.`,
		Example: `  trackerforge provision dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.svc.Provision(ctx, name)
				if result != nil {
					fmt.Println(environment.Display(result))
				}
				return err
			})
		},
	}
	return cmd
}

func newRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <environment> <instance-ip>",
		Short: "Adopt an existing instance instead of provisioning",
		Long: `Register pre-existing infrastructure for a created environment.

The environment jumps straight to the provisioned state with the given
instance address. Registered instances are never torn down by
'trackerforge destroy'.`,
		Example: `  trackerforge register dev 192.168.1.50`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			ip, err := parseAddr(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				provisioned, err := a.svc.Register(ctx, name, ip)
				if err != nil {
					return err
				}
				fmt.Println(environment.Display(provisioned))
				return nil
			})
		},
	}
	return cmd
}
