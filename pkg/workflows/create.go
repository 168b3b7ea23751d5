package workflows

import (
	"context"
	"fmt"
	"net/netip"
	"os"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Create registers a new environment in the Created state. It fails when an
// environment with the same name already exists.
func (s *Service) Create(ctx context.Context, params environment.CreateParams) (environment.Created, error) {
	exists, err := s.deps.Repo.Exists(params.Name)
	if err != nil {
		return environment.Created{}, fmt.Errorf("checking environment %q: %w", params.Name, err)
	}
	if exists {
		return environment.Created{}, fmt.Errorf("environment %q: %w", params.Name, environment.ErrConflict)
	}

	created := environment.New(params)
	if err := s.save(created); err != nil {
		return environment.Created{}, err
	}
	if err := os.MkdirAll(created.DataDir(), 0o755); err != nil {
		return environment.Created{}, fmt.Errorf("creating data directory: %w", err)
	}

	s.deps.Logger.WithEnvironment(params.Name.String()).Info("environment created")
	return created, nil
}

// Register adopts pre-existing infrastructure: the environment jumps from
// Created straight to Provisioned with the given instance address, and the
// destroy workflow will leave the instance alone.
func (s *Service) Register(ctx context.Context, name environment.Name, ip netip.Addr) (environment.Provisioned, error) {
	unlock, err := s.deps.Repo.Lock(name)
	if err != nil {
		return environment.Provisioned{}, err
	}
	defer unlock()

	current, err := s.load(name)
	if err != nil {
		return environment.Provisioned{}, err
	}
	created, err := environment.AsCreated(current)
	if err != nil {
		return environment.Provisioned{}, err
	}

	provisioned := created.Register(ip)
	if err := s.save(provisioned); err != nil {
		return environment.Provisioned{}, err
	}

	s.deps.Logger.WithEnvironment(name.String()).
		WithField("instance_ip", ip.String()).
		Info("registered existing instance")
	return provisioned, nil
}

// load fetches the environment record and turns absence into ErrNotFound.
func (s *Service) load(name environment.Name) (environment.Any, error) {
	a, err := s.deps.Repo.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading environment %q: %w", name, err)
	}
	if a == nil {
		return nil, fmt.Errorf("environment %q: %w", name, environment.ErrNotFound)
	}
	return a, nil
}

func (s *Service) save(a environment.Any) error {
	if err := s.deps.Repo.Save(a); err != nil {
		return fmt.Errorf("saving environment %q: %w", a.Name(), err)
	}
	return nil
}
