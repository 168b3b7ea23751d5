package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <environment>",
		Short:   "Show an environment's state and details",
		Example: `  trackerforge show dev`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				env, err := a.svc.Show(ctx, name)
				if err != nil {
					return err
				}
				printEnvironment(env)
				return nil
			})
		},
	}
	return cmd
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List all environments",
		Example: `  trackerforge list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				envs, err := a.svc.List(ctx)
				if err != nil {
					return err
				}
				if len(envs) == 0 {
					fmt.Println("No environments.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSTATE\tPROVIDER\tINSTANCE IP")
				for _, env := range envs {
					ip := "-"
					if addr, ok := env.InstanceIP(); ok {
						ip = addr.String()
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						env.Name(), env.StateName(), env.ProviderName(), ip)
				}
				return w.Flush()
			})
		},
	}
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:     "history <environment>",
		Short:   "Show recorded workflow runs for an environment",
		Example: `  trackerforge history dev --limit 20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				runs, err := a.svc.History(ctx, name, limit, offset)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Println("No recorded runs.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tWORKFLOW\tSTATUS\tFAILED STEP\tRUN ID")
				for _, run := range runs {
					failedStep := "-"
					if run.FailedStep != nil {
						failedStep = *run.FailedStep
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						run.StartedAt.Format("2006-01-02 15:04:05"),
						run.Workflow, run.Status, failedStep, run.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")

	return cmd
}

func printEnvironment(env environment.Any) {
	fmt.Println(environment.Display(env))
	fmt.Printf("  provider:  %s\n", env.ProviderName())
	fmt.Printf("  instance:  %s\n", env.InstanceName())
	if ip, ok := env.InstanceIP(); ok {
		fmt.Printf("  address:   %s (ssh port %d)\n", ip, env.SSHPort())
	}
	if env.Registered() {
		fmt.Println("  adopted:   pre-existing infrastructure (never destroyed)")
	}
	tracker := env.Tracker()
	fmt.Printf("  tracker:   udp %d, http %d, api %d\n",
		tracker.UDPPort, tracker.HTTPPort, tracker.APIPort)
	fmt.Printf("  created:   %s\n", env.CreatedAt().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  data dir:  %s\n", env.DataDir())
}
