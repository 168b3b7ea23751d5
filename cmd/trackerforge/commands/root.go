package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	workingDir    string
	logLevel      string
	logFormat     string
	traceExporter string
	tofuBinary    string
	ansibleBinary string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trackerforge",
		Short: "TrackerForge - BitTorrent tracker deployment lifecycle",
		Long: `TrackerForge provisions, configures and runs the Torrust BitTorrent
tracker stack on LXD or Hetzner Cloud instances.

An environment moves through an explicit lifecycle:

  created -> provisioning -> provisioned -> configuring -> configured
          -> releasing -> released -> running

Each step persists its outcome, so a failed workflow leaves the
environment in a failure state with a full failure trace instead of
half-applied infrastructure.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&workingDir, "working-dir", "w", ".", "directory holding environment data and build trees")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "none", "trace exporter (none, stdout)")
	rootCmd.PersistentFlags().StringVar(&tofuBinary, "tofu-binary", "tofu", "OpenTofu executable")
	rootCmd.PersistentFlags().StringVar(&ansibleBinary, "ansible-binary", "ansible-playbook", "ansible-playbook executable")

	// Add subcommands
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newProvisionCommand())
	rootCmd.AddCommand(newRegisterCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newReleaseCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newPurgeCommand())

	return rootCmd
}
