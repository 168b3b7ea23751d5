package environment

// Provider identifies the infrastructure provider backing an environment.
type Provider string

const (
	ProviderLXD     Provider = "lxd"
	ProviderHetzner Provider = "hetzner"
)

// LXDConfig holds provider settings for LXD-backed environments.
type LXDConfig struct {
	// ProfileName is the LXD profile applied to the container.
	ProfileName ProfileName
}

// HetznerConfig holds provider settings for Hetzner Cloud environments.
type HetznerConfig struct {
	// APIToken authenticates against the Hetzner Cloud API. It is part of
	// the immutable user inputs and is persisted with the environment.
	APIToken string

	// ServerType is the Hetzner server type, e.g. "cx22".
	ServerType string

	// Location is the Hetzner datacenter location, e.g. "fsn1".
	Location string

	// Image is the OS image, e.g. "ubuntu-24.04".
	Image string
}

// ProviderConfig is a tagged union over the supported providers. Exactly one
// of the branches is set; the choice is made at environment creation and is
// immutable afterwards.
type ProviderConfig struct {
	lxd     *LXDConfig
	hetzner *HetznerConfig
}

// NewLXDProviderConfig returns a ProviderConfig for the LXD provider.
func NewLXDProviderConfig(cfg LXDConfig) ProviderConfig {
	return ProviderConfig{lxd: &cfg}
}

// NewHetznerProviderConfig returns a ProviderConfig for the Hetzner provider.
func NewHetznerProviderConfig(cfg HetznerConfig) ProviderConfig {
	return ProviderConfig{hetzner: &cfg}
}

// Provider returns which provider this configuration selects.
func (p ProviderConfig) Provider() Provider {
	if p.hetzner != nil {
		return ProviderHetzner
	}
	return ProviderLXD
}

// Name returns the stable provider name used in persisted records, derived
// paths and user-facing output.
func (p ProviderConfig) Name() string {
	return string(p.Provider())
}

// LXD returns the LXD settings, or false when another provider is selected.
func (p ProviderConfig) LXD() (LXDConfig, bool) {
	if p.lxd == nil {
		return LXDConfig{}, false
	}
	return *p.lxd, true
}

// Hetzner returns the Hetzner settings, or false when another provider is
// selected.
func (p ProviderConfig) Hetzner() (HetznerConfig, bool) {
	if p.hetzner == nil {
		return HetznerConfig{}, false
	}
	return *p.hetzner, true
}
