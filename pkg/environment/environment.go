package environment

import (
	"net/netip"
	"path/filepath"
	"time"
)

// Directory names under an environment's data and build directories.
const (
	tracesDirName    = "traces"
	templatesDirName = "templates"
	ansibleDirName   = "ansible"
	tofuDirName      = "tofu"
	composeDirName   = "compose"
)

// env is the state-independent core shared by every lifecycle state type.
// It is embedded (unexported) in each state struct so the read accessors
// promote to all of them while the field set stays closed to this package.
//
// The fields fall into three groups: user inputs fixed at creation (name,
// provider, SSH settings, tracker snapshot), derived internal configuration
// (dataDir, buildDir), and runtime outputs produced by workflows
// (instanceIP, registered).
type env struct {
	name         Name
	instanceName InstanceName
	profileName  ProfileName
	provider     ProviderConfig
	ssh          SSHCredentials
	sshPort      int
	tracker      TrackerStack
	dataDir      string
	buildDir     string
	createdAt    time.Time
	instanceIP   netip.Addr
	registered   bool
}

// CreateParams collects everything needed to create a new environment.
// The clock value is passed in rather than read from time.Now so creation
// stays deterministic in tests.
type CreateParams struct {
	Name        Name
	Provider    ProviderConfig
	SSH         SSHCredentials
	SSHPort     int
	Tracker     TrackerStack
	WorkingDir  string
	CreatedAt   time.Time
}

// New creates an environment in the Created state. The instance and profile
// names, data directory and build directory are derived from the environment
// name underneath the working directory:
//
//	{working_dir}/data/{name}
//	{working_dir}/build/{name}
func New(p CreateParams) Created {
	return Created{env: env{
		name:         p.Name,
		instanceName: instanceNameFor(p.Name),
		profileName:  profileNameFor(p.Name),
		provider:     p.Provider,
		ssh:          p.SSH,
		sshPort:      p.SSHPort,
		tracker:      p.Tracker,
		dataDir:      filepath.Join(p.WorkingDir, "data", p.Name.String()),
		buildDir:     filepath.Join(p.WorkingDir, "build", p.Name.String()),
		createdAt:    p.CreatedAt,
	}}
}

// Name returns the environment name.
func (e env) Name() Name { return e.name }

// InstanceName returns the derived instance name.
func (e env) InstanceName() InstanceName { return e.instanceName }

// ProfileName returns the derived LXD profile name.
func (e env) ProfileName() ProfileName { return e.profileName }

// ProviderConfig returns the provider configuration chosen at creation.
func (e env) ProviderConfig() ProviderConfig { return e.provider }

// ProviderName returns the stable provider name ("lxd", "hetzner").
func (e env) ProviderName() string { return e.provider.Name() }

// SSHCredentials returns the SSH key pair and username.
func (e env) SSHCredentials() SSHCredentials { return e.ssh }

// SSHPort returns the SSH port used to reach the instance.
func (e env) SSHPort() int { return e.sshPort }

// Tracker returns the tracker service configuration snapshot.
func (e env) Tracker() TrackerStack { return e.tracker }

// CreatedAt returns when the environment was created.
func (e env) CreatedAt() time.Time { return e.createdAt }

// DataDir returns the environment's data directory. The persisted record and
// trace files live underneath it.
func (e env) DataDir() string { return e.dataDir }

// BuildDir returns the environment's build directory for rendered artifacts.
func (e env) BuildDir() string { return e.buildDir }

// TracesDir returns the directory holding failure trace files.
func (e env) TracesDir() string { return filepath.Join(e.dataDir, tracesDirName) }

// TemplatesDir returns the directory for environment-specific template
// overrides.
func (e env) TemplatesDir() string { return filepath.Join(e.dataDir, templatesDirName) }

// TofuBuildDir returns the directory the OpenTofu artifacts are rendered
// into. It is provider-specific; its existence on disk is what the destroy
// workflow uses to decide whether infrastructure was ever provisioned.
func (e env) TofuBuildDir() string {
	return filepath.Join(e.buildDir, tofuDirName, e.provider.Name())
}

// AnsibleBuildDir returns the directory the Ansible artifacts are rendered
// into.
func (e env) AnsibleBuildDir() string { return filepath.Join(e.buildDir, ansibleDirName) }

// ComposeBuildDir returns the directory the Docker Compose artifacts are
// rendered into.
func (e env) ComposeBuildDir() string { return filepath.Join(e.buildDir, composeDirName) }

// InstanceIP returns the instance address and whether it is known yet. The
// address is set when provisioning completes or the environment is
// registered against existing infrastructure, and is retained afterwards for
// display even once the environment is destroyed.
func (e env) InstanceIP() (netip.Addr, bool) {
	return e.instanceIP, e.instanceIP.IsValid()
}

// Registered reports whether the environment adopted pre-existing
// infrastructure via Register instead of provisioning its own. Registered
// environments are never infrastructure-destroyed by the destroy workflow.
func (e env) Registered() bool { return e.registered }
