package commands

import (
	"context"
	"fmt"
	"net/netip"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trackerforge/trackerforge/pkg/environment"
	"github.com/trackerforge/trackerforge/pkg/infra"
	"github.com/trackerforge/trackerforge/pkg/remote"
	"github.com/trackerforge/trackerforge/pkg/repository"
	"github.com/trackerforge/trackerforge/pkg/stores"
	"github.com/trackerforge/trackerforge/pkg/telemetry"
	"github.com/trackerforge/trackerforge/pkg/templates"
	"github.com/trackerforge/trackerforge/pkg/workflows"
)

const runHistoryFileName = "trackerforge.db"

// app wires the workflow service and everything it needs from the global
// flags. Commands build one per invocation and close it when done.
type app struct {
	svc    *workflows.Service
	logger *telemetry.Logger
	tracer *telemetry.Tracer
	runs   *stores.SQLiteStore
}

func newApp(ctx context.Context, version string) (*app, error) {
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  logLevel,
		Format: logFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	tracer, err := telemetry.NewTracer(telemetry.TracingConfig{
		Enabled:      traceExporter != "none",
		Exporter:     traceExporter,
		SamplingRate: 1.0,
	}, "trackerforge", version)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}

	runs, err := stores.NewSQLiteStore(stores.Config{
		Path: filepath.Join(workingDir, runHistoryFileName),
	})
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	if err := runs.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	if err := runs.Migrate(ctx); err != nil {
		runs.Close()
		return nil, fmt.Errorf("migrating run history: %w", err)
	}

	svc := workflows.NewService(workflows.Deps{
		Repo:     repository.NewFileRepository(filepath.Join(workingDir, "data")),
		Runs:     runs,
		Logger:   logger,
		Tracer:   tracer,
		// No fixed override directory: each environment's own templates
		// directory shadows the embedded set.
		Renderer: templates.NewRenderer(""),
		NewInfra: func(workDir string) workflows.InfraRunner {
			return infra.NewRunner(tofuBinary, workDir)
		},
		NewPlaybooks: func(workDir string) workflows.PlaybookRunner {
			return infra.NewAnsibleRunner(ansibleBinary, workDir)
		},
		NewRemote: func(creds environment.SSHCredentials, ip netip.Addr, port int) (workflows.RemoteHost, error) {
			return remote.NewClient(creds, ip, port)
		},
	})

	return &app{svc: svc, logger: logger, tracer: tracer, runs: runs}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.runs.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close run history")
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("failed to shut down tracer")
	}
}

func parseAddr(raw string) (netip.Addr, error) {
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid instance address %q: %w", raw, err)
	}
	return ip, nil
}

// withApp is the shared command body: build the app, run fn, clean up.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.Root().Version)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}
