package workflows

import (
	"context"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Provision takes a Created environment to Provisioned: it renders the
// OpenTofu templates, applies them, reads back the instance address, renders
// the Ansible inventory against it, and waits for the instance to accept SSH
// and finish cloud-init. A step failure lands the environment in
// ProvisionFailed with the full failure context.
func (s *Service) Provision(ctx context.Context, name environment.Name) (environment.Any, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return nil, err
	}
	created, err := environment.AsCreated(current)
	if err != nil {
		return nil, err
	}

	provisioning := created.StartProvisioning()
	if err := s.save(provisioning); err != nil {
		return nil, err
	}

	a, ctx := s.begin(ctx, "provision", provisioning)

	fail := func(step environment.ProvisionStep, kind environment.ErrorKind, err error) (environment.Any, error) {
		failed := provisioning.ProvisionFailed(environment.ProvisionFailureContext{
			FailedStep: step,
			Kind:       kind,
			Base:       a.fail(ctx, string(step), kind, err),
		})
		if serr := s.save(failed); serr != nil {
			return nil, serr
		}
		return failed, err
	}

	err = a.step(ctx, string(environment.ProvisionStepRenderTofuTemplates), func(ctx context.Context) error {
		return s.deps.Renderer.RenderTofu(provisioning, provisioning.TofuBuildDir())
	})
	if err != nil {
		return fail(environment.ProvisionStepRenderTofuTemplates, environment.ErrorKindTemplateRendering, err)
	}

	infraRunner := s.deps.NewInfra(provisioning.TofuBuildDir())
	for _, st := range []struct {
		step environment.ProvisionStep
		run  func(ctx context.Context) error
	}{
		{environment.ProvisionStepTofuInit, infraRunner.Init},
		{environment.ProvisionStepTofuValidate, infraRunner.Validate},
		{environment.ProvisionStepTofuPlan, infraRunner.Plan},
		{environment.ProvisionStepTofuApply, infraRunner.Apply},
	} {
		if err := a.step(ctx, string(st.step), st.run); err != nil {
			return fail(st.step, environment.ErrorKindInfrastructureOperation, err)
		}
	}

	var provisioned environment.Provisioned
	err = a.step(ctx, string(environment.ProvisionStepGetInstanceInfo), func(ctx context.Context) error {
		ip, err := infraRunner.InstanceIP(ctx)
		if err != nil {
			return err
		}
		provisioned = provisioning.Provisioned(ip)
		return nil
	})
	if err != nil {
		return fail(environment.ProvisionStepGetInstanceInfo, environment.ErrorKindInfrastructureOperation, err)
	}

	// The inventory needs the instance address, so the Ansible templates
	// render against the provisioned candidate rather than the saved state.
	err = a.step(ctx, string(environment.ProvisionStepRenderAnsibleTemplates), func(ctx context.Context) error {
		return s.deps.Renderer.RenderAnsible(provisioned, provisioned.AnsibleBuildDir())
	})
	if err != nil {
		return fail(environment.ProvisionStepRenderAnsibleTemplates, environment.ErrorKindTemplateRendering, err)
	}

	remote, err := s.remoteFor(provisioned)
	if err != nil {
		return fail(environment.ProvisionStepWaitSSHConnectivity, environment.ErrorKindConfiguration, err)
	}
	defer remote.Close()

	err = a.step(ctx, string(environment.ProvisionStepWaitSSHConnectivity), func(ctx context.Context) error {
		return remote.WaitForConnectivity(ctx, s.deps.SSHWaitTimeout, s.deps.SSHWaitInterval)
	})
	if err != nil {
		return fail(environment.ProvisionStepWaitSSHConnectivity, environment.ErrorKindNetworkConnectivity, err)
	}

	err = a.step(ctx, string(environment.ProvisionStepCloudInitWait), func(ctx context.Context) error {
		if err := remote.Connect(ctx); err != nil {
			return err
		}
		return remote.WaitForCloudInit(ctx)
	})
	if err != nil {
		return fail(environment.ProvisionStepCloudInitWait, environment.ErrorKindConfigurationTimeout, err)
	}

	if err := s.save(provisioned); err != nil {
		return nil, err
	}
	a.succeed(ctx)
	return provisioned, nil
}
