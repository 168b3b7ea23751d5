package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Destroy tears the environment down: it destroys the provisioned
// infrastructure (unless the instance was registered, in which case it is
// left alone) and removes the build tree. Destroying an already-destroyed
// environment is a no-op; an environment found mid-destroy resumes the
// teardown instead of failing the state check.
func (s *Service) Destroy(ctx context.Context, name environment.Name) (environment.Any, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if _, ok := current.(environment.Destroyed); ok {
		return current, nil
	}

	a, ctx := s.begin(ctx, "destroy", current)

	var destroying environment.Destroying

	fail := func(step environment.DestroyStep, kind environment.ErrorKind, err error) (environment.Any, error) {
		failed := destroying.DestroyFailed(environment.DestroyFailureContext{
			FailedStep: step,
			Kind:       kind,
			Base:       a.fail(ctx, string(step), kind, err),
		})
		if serr := s.save(failed); serr != nil {
			return nil, serr
		}
		return failed, err
	}

	err = a.step(ctx, string(environment.DestroyStepLoadEnvironment), func(ctx context.Context) error {
		if d, ok := current.(environment.Destroying); ok {
			// A previous destroy was interrupted after the transition was
			// persisted. Resume from here.
			destroying = d
			return nil
		}
		d, err := environment.StartDestroying(current)
		if err != nil {
			return err
		}
		destroying = d
		return s.save(destroying)
	})
	if err != nil {
		var stateErr *environment.UnexpectedStateError
		if errors.As(err, &stateErr) {
			// Not a destroy attempt that failed, a destroy that never
			// started. No failure state to record.
			a.fail(ctx, string(environment.DestroyStepLoadEnvironment), environment.ErrorKindInternal, err)
			return nil, err
		}
		return fail(environment.DestroyStepLoadEnvironment, environment.ErrorKindStatePersistence, err)
	}

	err = a.step(ctx, string(environment.DestroyStepDestroyInfrastructure), func(ctx context.Context) error {
		if destroying.Registered() {
			// The instance pre-existed this tool; leave it running.
			return nil
		}
		infraRunner := s.deps.NewInfra(destroying.TofuBuildDir())
		if !infraRunner.HasState() {
			return nil
		}
		return infraRunner.Destroy(ctx)
	})
	if err != nil {
		return fail(environment.DestroyStepDestroyInfrastructure, environment.ErrorKindInfrastructureOperation, err)
	}

	err = a.step(ctx, string(environment.DestroyStepCleanupStateFiles), func(ctx context.Context) error {
		if err := os.RemoveAll(destroying.BuildDir()); err != nil {
			return fmt.Errorf("removing build directory: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail(environment.DestroyStepCleanupStateFiles, environment.ErrorKindInternal, err)
	}

	destroyed := destroying.Destroyed()
	if err := s.save(destroyed); err != nil {
		return nil, err
	}
	a.succeed(ctx)
	return destroyed, nil
}

// Purge removes every trace of the environment: the persisted record, the
// run history, and the data and build trees. The environment does not have
// to be destroyed first; purge is the forced cleanup path.
func (s *Service) Purge(ctx context.Context, name environment.Name) error {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.deps.Repo.Load(name)
	if err != nil {
		return fmt.Errorf("loading environment %q: %w", name, err)
	}
	if current == nil {
		return fmt.Errorf("environment %q: %w", name, environment.ErrNotFound)
	}

	log := s.deps.Logger.WithEnvironment(name.String())

	// Force the terminal state so anyone holding the value sees the outcome.
	destroyed := environment.Destroy(current)
	log.Info(environment.Display(destroyed))

	if err := os.RemoveAll(current.BuildDir()); err != nil {
		return fmt.Errorf("removing build directory: %w", err)
	}
	if err := os.RemoveAll(current.DataDir()); err != nil {
		return fmt.Errorf("removing data directory: %w", err)
	}

	if s.deps.Runs != nil {
		if _, err := s.deps.Runs.DeleteRunsByEnvironment(ctx, name.String()); err != nil {
			log.WithError(err).Warn("failed to delete run history")
		}
	}

	if err := s.deps.Repo.Delete(name); err != nil {
		return fmt.Errorf("deleting environment %q: %w", name, err)
	}

	log.Info("environment purged")
	return nil
}
