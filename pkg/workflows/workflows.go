// Package workflows implements the deployment lifecycle operations. Each
// workflow loads the environment from the repository, restores the typed
// state it requires, executes its steps, and persists the outcome: the
// success state or a failure state carrying the full failure context. All
// side effects go through the injected collaborators so tests can run every
// workflow without touching OpenTofu, Ansible or SSH.
package workflows

import (
	"context"
	"net/netip"
	"time"

	"github.com/trackerforge/trackerforge/pkg/environment"
	"github.com/trackerforge/trackerforge/pkg/stores"
	"github.com/trackerforge/trackerforge/pkg/telemetry"
	"github.com/trackerforge/trackerforge/pkg/trace"
)

// Repository is the persistence surface the workflows need: the core
// contract plus listing and cross-process locking.
type Repository interface {
	environment.Repository
	List() ([]environment.Any, error)
	Lock(name environment.Name) (func() error, error)
}

// InfraRunner drives OpenTofu in one build directory.
type InfraRunner interface {
	Init(ctx context.Context) error
	Validate(ctx context.Context) error
	Plan(ctx context.Context) error
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	InstanceIP(ctx context.Context) (netip.Addr, error)
	HasState() bool
}

// PlaybookRunner drives ansible-playbook in one build directory.
type PlaybookRunner interface {
	Play(ctx context.Context, playbook string) error
}

// RemoteHost is an SSH connection to the instance.
type RemoteHost interface {
	Connect(ctx context.Context) error
	Close() error
	Run(ctx context.Context, cmd string) (stdout, stderr string, err error)
	RunSudo(ctx context.Context, cmd string) (stdout, stderr string, err error)
	WaitForConnectivity(ctx context.Context, timeout, interval time.Duration) error
	WaitForCloudInit(ctx context.Context) error
	UploadDirectory(ctx context.Context, localDir, remoteDir string) error
}

// ArtifactRenderer renders the deployment artifacts into build directories.
type ArtifactRenderer interface {
	RenderTofu(a environment.Any, destDir string) error
	RenderAnsible(a environment.Any, destDir string) error
	RenderCompose(a environment.Any, destDir string) error
}

// TraceWriter records failed workflow attempts on disk.
type TraceWriter interface {
	Write(entry trace.Entry) (string, error)
}

// Deps are the collaborators injected into the Service. The factory fields
// exist because the build directory and instance address are only known at
// execution time.
type Deps struct {
	Repo   Repository
	Runs   stores.RunStore
	Logger *telemetry.Logger
	Tracer *telemetry.Tracer

	Renderer ArtifactRenderer

	// NewInfra returns an OpenTofu runner for a build directory.
	NewInfra func(workDir string) InfraRunner

	// NewPlaybooks returns an Ansible runner for a build directory.
	NewPlaybooks func(workDir string) PlaybookRunner

	// NewRemote connects the workflows to the instance.
	NewRemote func(creds environment.SSHCredentials, ip netip.Addr, port int) (RemoteHost, error)

	// NewTraceWriter returns a failure trace writer for a traces directory.
	NewTraceWriter func(dir string) TraceWriter

	// Clock and NewTraceID are injected for deterministic tests.
	Clock      func() time.Time
	NewTraceID func() environment.TraceID

	// SSHWaitTimeout bounds how long provisioning waits for the instance
	// to accept SSH connections.
	SSHWaitTimeout  time.Duration
	SSHWaitInterval time.Duration
}

// Service executes the lifecycle workflows.
type Service struct {
	deps Deps
}

// NewService builds a Service, filling in defaults for the optional
// dependencies.
func NewService(deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewTraceID == nil {
		deps.NewTraceID = environment.NewTraceID
	}
	if deps.NewTraceWriter == nil {
		deps.NewTraceWriter = func(dir string) TraceWriter { return trace.NewWriter(dir) }
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.NewTestLogger()
	}
	if deps.SSHWaitTimeout == 0 {
		deps.SSHWaitTimeout = 3 * time.Minute
	}
	if deps.SSHWaitInterval == 0 {
		deps.SSHWaitInterval = 5 * time.Second
	}
	return &Service{deps: deps}
}

// remoteFor opens an SSH connection to the environment's instance.
func (s *Service) remoteFor(a environment.Any) (RemoteHost, error) {
	ip, ok := a.InstanceIP()
	if !ok {
		return nil, &environment.InternalError{Op: "remote", Err: errNoInstanceIP}
	}
	return s.deps.NewRemote(a.SSHCredentials(), ip, a.SSHPort())
}
