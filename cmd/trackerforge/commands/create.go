package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/config"
	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newCreateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new environment",
		Long: `Create a new environment from a YAML config file.

The environment starts in the created state. Nothing is provisioned
yet; run 'trackerforge provision' next, or 'trackerforge register'
to adopt an instance that already exists.`,
		Example: `  # Create an environment from its config
  trackerforge create --config dev.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				params, err := cfg.CreateParams(workingDir, time.Now())
				if err != nil {
					return err
				}
				created, err := a.svc.Create(ctx, params)
				if err != nil {
					return err
				}
				fmt.Println(environment.Display(created))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "environment config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
