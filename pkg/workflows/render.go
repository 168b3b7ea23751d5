package workflows

import (
	"context"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// RenderResult reports which artifact sets Render produced and where.
type RenderResult struct {
	TofuDir string
	// AnsibleDir is empty when the environment has no instance address
	// yet: the inventory cannot be rendered without one.
	AnsibleDir string
	ComposeDir string
}

// Render generates the deployment artifacts into the environment's build
// directories without executing any workflow. It works from any state, so
// artifacts can be inspected before provisioning or regenerated afterwards.
func (s *Service) Render(ctx context.Context, name environment.Name) (RenderResult, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return RenderResult{}, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return RenderResult{}, err
	}

	res := RenderResult{
		TofuDir:    current.TofuBuildDir(),
		ComposeDir: current.ComposeBuildDir(),
	}
	if err := s.deps.Renderer.RenderTofu(current, res.TofuDir); err != nil {
		return RenderResult{}, err
	}
	if err := s.deps.Renderer.RenderCompose(current, res.ComposeDir); err != nil {
		return RenderResult{}, err
	}
	if _, ok := current.InstanceIP(); ok {
		res.AnsibleDir = current.AnsibleBuildDir()
		if err := s.deps.Renderer.RenderAnsible(current, res.AnsibleDir); err != nil {
			return RenderResult{}, err
		}
	}
	return res, nil
}
