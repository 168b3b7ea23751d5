package workflows

import (
	"context"
	"fmt"
	"path"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// stackDirFor is where the compose stack lives on the instance.
func stackDirFor(a environment.Any) string {
	return path.Join("/home", a.SSHCredentials().Username, "tracker")
}

// Release takes a Configured environment to Released: it renders the compose
// stack and tracker configuration, uploads them to the instance, and asks
// docker compose to validate the stack without starting it.
func (s *Service) Release(ctx context.Context, name environment.Name) (environment.Any, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return nil, err
	}
	configured, err := environment.AsConfigured(current)
	if err != nil {
		return nil, err
	}

	releasing := configured.StartReleasing()
	if err := s.save(releasing); err != nil {
		return nil, err
	}

	a, ctx := s.begin(ctx, "release", releasing)

	fail := func(step environment.ReleaseStep, kind environment.ErrorKind, err error) (environment.Any, error) {
		failed := releasing.ReleaseFailed(environment.ReleaseFailureContext{
			FailedStep: step,
			Kind:       kind,
			Base:       a.fail(ctx, string(step), kind, err),
		})
		if serr := s.save(failed); serr != nil {
			return nil, serr
		}
		return failed, err
	}

	err = a.step(ctx, string(environment.ReleaseStepRenderComposeTemplates), func(ctx context.Context) error {
		return s.deps.Renderer.RenderCompose(releasing, releasing.ComposeBuildDir())
	})
	if err != nil {
		return fail(environment.ReleaseStepRenderComposeTemplates, environment.ErrorKindTemplateRendering, err)
	}

	remote, err := s.remoteFor(releasing)
	if err != nil {
		return fail(environment.ReleaseStepTransferFiles, environment.ErrorKindConfiguration, err)
	}
	defer remote.Close()

	stackDir := stackDirFor(releasing)

	err = a.step(ctx, string(environment.ReleaseStepTransferFiles), func(ctx context.Context) error {
		if err := remote.Connect(ctx); err != nil {
			return err
		}
		return remote.UploadDirectory(ctx, releasing.ComposeBuildDir(), stackDir)
	})
	if err != nil {
		return fail(environment.ReleaseStepTransferFiles, environment.ErrorKindNetworkConnectivity, err)
	}

	err = a.step(ctx, string(environment.ReleaseStepValidateStack), func(ctx context.Context) error {
		_, stderr, err := remote.Run(ctx, fmt.Sprintf("cd %s && docker compose config --quiet", stackDir))
		if err != nil {
			return fmt.Errorf("compose validation: %w (%s)", err, stderr)
		}
		return nil
	})
	if err != nil {
		return fail(environment.ReleaseStepValidateStack, environment.ErrorKindCommandExecution, err)
	}

	released := releasing.Released()
	if err := s.save(released); err != nil {
		return nil, err
	}
	a.succeed(ctx)
	return released, nil
}
