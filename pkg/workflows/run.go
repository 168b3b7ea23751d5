package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Run takes a Released environment to Running: it starts the compose stack
// on the instance and waits until every service reports running. Running is
// persisted before the services start, so a failure lands in RunFailed via
// the Running state's error edge.
func (s *Service) Run(ctx context.Context, name environment.Name) (environment.Any, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return nil, err
	}
	released, err := environment.AsReleased(current)
	if err != nil {
		return nil, err
	}

	running := released.StartRunning()
	if err := s.save(running); err != nil {
		return nil, err
	}

	a, ctx := s.begin(ctx, "run", running)

	fail := func(step environment.RunStep, kind environment.ErrorKind, err error) (environment.Any, error) {
		failed := running.RunFailed(environment.RunFailureContext{
			FailedStep: step,
			Kind:       kind,
			Base:       a.fail(ctx, string(step), kind, err),
		})
		if serr := s.save(failed); serr != nil {
			return nil, serr
		}
		return failed, err
	}

	remote, err := s.remoteFor(running)
	if err != nil {
		return fail(environment.RunStepStartServices, environment.ErrorKindConfiguration, err)
	}
	defer remote.Close()

	stackDir := stackDirFor(running)

	err = a.step(ctx, string(environment.RunStepStartServices), func(ctx context.Context) error {
		if err := remote.Connect(ctx); err != nil {
			return err
		}
		_, stderr, err := remote.Run(ctx, fmt.Sprintf("cd %s && docker compose up --detach", stackDir))
		if err != nil {
			return fmt.Errorf("compose up: %w (%s)", err, stderr)
		}
		return nil
	})
	if err != nil {
		return fail(environment.RunStepStartServices, environment.ErrorKindCommandExecution, err)
	}

	err = a.step(ctx, string(environment.RunStepWaitServiceHealth), func(ctx context.Context) error {
		return waitForServices(ctx, remote, stackDir, s.deps.SSHWaitTimeout, s.deps.SSHWaitInterval)
	})
	if err != nil {
		return fail(environment.RunStepWaitServiceHealth, environment.ErrorKindCommandExecution, err)
	}

	a.succeed(ctx)
	return running, nil
}

// waitForServices polls docker compose until every declared service is
// running, or the timeout elapses.
func waitForServices(ctx context.Context, remote RemoteHost, stackDir string, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		declared, _, err := remote.Run(ctx, fmt.Sprintf("cd %s && docker compose config --services", stackDir))
		if err == nil {
			up, _, upErr := remote.Run(ctx, fmt.Sprintf("cd %s && docker compose ps --services --status running", stackDir))
			if upErr == nil && countLines(up) >= countLines(declared) && countLines(declared) > 0 {
				return nil
			}
			lastErr = upErr
		} else {
			lastErr = err
		}

		if time.Now().After(deadline) {
			if lastErr != nil {
				return fmt.Errorf("services not running after %s: %w", timeout, lastErr)
			}
			return fmt.Errorf("services not running after %s", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
