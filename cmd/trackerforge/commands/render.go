package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/config"
	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <environment>",
		Short: "Generate deployment artifacts without deploying",
		Long: `Render the OpenTofu configuration, Ansible playbooks and Docker
Compose stack into the environment's build directories.

Nothing is executed. Use this to inspect the artifacts before
provisioning, or to regenerate them after editing a template
override. The Ansible inventory needs the instance address, so it
is only rendered once the environment has been provisioned or
registered.`,
		Example: `  trackerforge render dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.svc.Render(ctx, name)
				if err != nil {
					return err
				}
				fmt.Println("Deployment artifacts generated.")
				fmt.Printf("  tofu:     %s\n", res.TofuDir)
				fmt.Printf("  compose:  %s\n", res.ComposeDir)
				if res.AnsibleDir != "" {
					fmt.Printf("  ansible:  %s\n", res.AnsibleDir)
				} else {
					fmt.Println("  ansible:  skipped (no instance address yet)")
				}
				return nil
			})
		},
	}
	return cmd
}

func newValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an environment config file",
		Long: `Validate a YAML config file without creating anything. The file is
checked against the config schema and the environment naming rules,
so mistakes surface before 'trackerforge create' runs.`,
		Example: `  trackerforge validate --config dev.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("Config valid: environment %q, provider %s\n", cfg.Name, cfg.Provider.Kind)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "environment config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
