package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// EnvironmentConfig is the YAML schema of a create config file.
type EnvironmentConfig struct {
	Name     string         `yaml:"name" validate:"required,hostname_rfc1123"`
	Provider ProviderConfig `yaml:"provider" validate:"required"`
	SSH      SSHConfig      `yaml:"ssh" validate:"required"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

// ProviderConfig selects and configures the infrastructure provider.
type ProviderConfig struct {
	Kind    string         `yaml:"kind" validate:"required,oneof=lxd hetzner"`
	Hetzner *HetznerConfig `yaml:"hetzner,omitempty"`
}

// HetznerConfig carries the Hetzner Cloud settings. Required when the
// provider kind is hetzner.
type HetznerConfig struct {
	APIToken   string `yaml:"api_token" validate:"required"`
	ServerType string `yaml:"server_type" validate:"required"`
	Location   string `yaml:"location" validate:"required"`
	Image      string `yaml:"image" validate:"required"`
}

// SSHConfig locates the SSH key pair used to reach the instance.
type SSHConfig struct {
	PrivateKeyPath string `yaml:"private_key_path" validate:"required"`
	PublicKeyPath  string `yaml:"public_key_path" validate:"required"`
	Username       string `yaml:"username" validate:"required"`
	Port           int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// TrackerConfig carries the tracker service ports and API token. Zero ports
// take the tracker's defaults.
type TrackerConfig struct {
	UDPPort  int    `yaml:"udp_port" validate:"omitempty,min=1,max=65535"`
	HTTPPort int    `yaml:"http_port" validate:"omitempty,min=1,max=65535"`
	APIPort  int    `yaml:"api_port" validate:"omitempty,min=1,max=65535"`
	APIToken string `yaml:"api_token"`
}

// Defaults applied to fields the config file leaves unset.
const (
	DefaultSSHPort  = 22
	DefaultUDPPort  = 6969
	DefaultHTTPPort = 7070
	DefaultAPIPort  = 1212
)

// Load reads, parses and validates a create config file.
func Load(path string) (*EnvironmentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates config data.
func Parse(data []byte) (*EnvironmentConfig, error) {
	var cfg EnvironmentConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *EnvironmentConfig) applyDefaults() {
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.Tracker.UDPPort == 0 {
		c.Tracker.UDPPort = DefaultUDPPort
	}
	if c.Tracker.HTTPPort == 0 {
		c.Tracker.HTTPPort = DefaultHTTPPort
	}
	if c.Tracker.APIPort == 0 {
		c.Tracker.APIPort = DefaultAPIPort
	}
}

// Validate checks the configuration beyond YAML well-formedness.
func (c *EnvironmentConfig) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// The name must also satisfy the stricter environment identifier rules.
	if _, err := environment.NewName(c.Name); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Provider.Kind == "hetzner" && c.Provider.Hetzner == nil {
		return fmt.Errorf("invalid config: provider kind %q requires a hetzner section", c.Provider.Kind)
	}
	if c.Provider.Hetzner != nil {
		if err := v.Struct(c.Provider.Hetzner); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// CreateParams converts the validated config into environment creation
// parameters. workingDir is where the data and build trees live; now is the
// creation timestamp.
func (c *EnvironmentConfig) CreateParams(workingDir string, now time.Time) (environment.CreateParams, error) {
	name, err := environment.NewName(c.Name)
	if err != nil {
		return environment.CreateParams{}, err
	}

	var provider environment.ProviderConfig
	switch c.Provider.Kind {
	case "lxd":
		profile, err := environment.NewProfileName("tracker-" + c.Name)
		if err != nil {
			return environment.CreateParams{}, err
		}
		provider = environment.NewLXDProviderConfig(environment.LXDConfig{ProfileName: profile})
	case "hetzner":
		provider = environment.NewHetznerProviderConfig(environment.HetznerConfig{
			APIToken:   c.Provider.Hetzner.APIToken,
			ServerType: c.Provider.Hetzner.ServerType,
			Location:   c.Provider.Hetzner.Location,
			Image:      c.Provider.Hetzner.Image,
		})
	default:
		return environment.CreateParams{}, fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}

	return environment.CreateParams{
		Name:     name,
		Provider: provider,
		SSH: environment.SSHCredentials{
			PrivateKeyPath: c.SSH.PrivateKeyPath,
			PublicKeyPath:  c.SSH.PublicKeyPath,
			Username:       c.SSH.Username,
		},
		SSHPort: c.SSH.Port,
		Tracker: environment.TrackerStack{
			UDPPort:  c.Tracker.UDPPort,
			HTTPPort: c.Tracker.HTTPPort,
			APIPort:  c.Tracker.APIPort,
			APIToken: c.Tracker.APIToken,
		},
		WorkingDir: workingDir,
		CreatedAt:  now,
	}, nil
}
