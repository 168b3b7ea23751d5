package workflows

import (
	"context"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Playbooks executed by the configure workflow, in order. They are rendered
// into the Ansible build directory during provisioning.
const (
	playbookInstallDocker        = "install-docker.yml"
	playbookInstallDockerCompose = "install-docker-compose.yml"
)

// Configure takes a Provisioned environment to Configured: it waits for
// cloud-init to settle and installs Docker and the compose plugin on the
// instance through the rendered playbooks.
func (s *Service) Configure(ctx context.Context, name environment.Name) (environment.Any, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return nil, err
	}
	provisioned, err := environment.AsProvisioned(current)
	if err != nil {
		return nil, err
	}

	configuring := provisioned.StartConfiguring()
	if err := s.save(configuring); err != nil {
		return nil, err
	}

	a, ctx := s.begin(ctx, "configure", configuring)

	fail := func(step environment.ConfigureStep, kind environment.ErrorKind, err error) (environment.Any, error) {
		failed := configuring.ConfigureFailed(environment.ConfigureFailureContext{
			FailedStep: step,
			Kind:       kind,
			Base:       a.fail(ctx, string(step), kind, err),
		})
		if serr := s.save(failed); serr != nil {
			return nil, serr
		}
		return failed, err
	}

	remote, err := s.remoteFor(configuring)
	if err != nil {
		return fail(environment.ConfigureStepWaitCloudInit, environment.ErrorKindConfiguration, err)
	}
	defer remote.Close()

	err = a.step(ctx, string(environment.ConfigureStepWaitCloudInit), func(ctx context.Context) error {
		if err := remote.Connect(ctx); err != nil {
			return err
		}
		return remote.WaitForCloudInit(ctx)
	})
	if err != nil {
		return fail(environment.ConfigureStepWaitCloudInit, environment.ErrorKindConfigurationTimeout, err)
	}

	playbooks := s.deps.NewPlaybooks(configuring.AnsibleBuildDir())

	err = a.step(ctx, string(environment.ConfigureStepInstallDocker), func(ctx context.Context) error {
		return playbooks.Play(ctx, playbookInstallDocker)
	})
	if err != nil {
		return fail(environment.ConfigureStepInstallDocker, environment.ErrorKindCommandExecution, err)
	}

	err = a.step(ctx, string(environment.ConfigureStepInstallDockerCompose), func(ctx context.Context) error {
		return playbooks.Play(ctx, playbookInstallDockerCompose)
	})
	if err != nil {
		return fail(environment.ConfigureStepInstallDockerCompose, environment.ErrorKindCommandExecution, err)
	}

	configured := configuring.Configured()
	if err := s.save(configured); err != nil {
		return nil, err
	}
	a.succeed(ctx)
	return configured, nil
}
