package workflows

import (
	"context"

	"github.com/trackerforge/trackerforge/pkg/environment"
	"github.com/trackerforge/trackerforge/pkg/stores"
)

// Show returns the stored environment, whatever its state.
func (s *Service) Show(ctx context.Context, name environment.Name) (environment.Any, error) {
	return s.load(name)
}

// List returns every stored environment, sorted by name.
func (s *Service) List(ctx context.Context) ([]environment.Any, error) {
	return s.deps.Repo.List()
}

// History returns the recorded workflow runs for an environment, most recent
// first.
func (s *Service) History(ctx context.Context, name environment.Name, limit, offset int) ([]*stores.DeploymentRun, error) {
	if s.deps.Runs == nil {
		return nil, nil
	}
	return s.deps.Runs.ListRunsByEnvironment(ctx, name.String(), limit, offset)
}

// StepLog returns the step events recorded for one run.
func (s *Service) StepLog(ctx context.Context, runID string) ([]*stores.StepEvent, error) {
	if s.deps.Runs == nil {
		return nil, nil
	}
	return s.deps.Runs.ListStepEvents(ctx, runID)
}
