package environment

import (
	"fmt"
	"strings"
)

// maxNameLength bounds every identifier so derived artifacts (directories,
// container names, LXD profiles) stay within provider limits.
const maxNameLength = 63

// Prefixes for the names derived from an environment name.
const (
	instanceNamePrefix = "tracker-vm-"
	profileNamePrefix  = "tracker-"
)

// maxEnvironmentNameLength leaves room for the longest derived prefix, so an
// accepted environment name can never produce an instance or profile name
// that fails validation on load.
const maxEnvironmentNameLength = maxNameLength - len(instanceNamePrefix)

// Name is a validated environment name. Names are lowercase, dash-separated
// identifiers: they must start with a letter, contain only [a-z0-9-], and
// must not start or end with a dash.
type Name struct {
	value string
}

// NewName validates raw and returns it as a Name.
func NewName(raw string) (Name, error) {
	if len(raw) > maxEnvironmentNameLength {
		return Name{}, fmt.Errorf("environment name %q exceeds %d characters", raw, maxEnvironmentNameLength)
	}
	if err := validateIdentifier("environment name", raw); err != nil {
		return Name{}, err
	}
	return Name{value: raw}, nil
}

func (n Name) String() string { return n.value }

// IsZero reports whether the name is the uninitialized zero value.
func (n Name) IsZero() bool { return n.value == "" }

// InstanceName is a validated name for the provisioned instance (LXD
// container or Hetzner server). Same format rules as Name.
type InstanceName struct {
	value string
}

// NewInstanceName validates raw and returns it as an InstanceName.
func NewInstanceName(raw string) (InstanceName, error) {
	if err := validateIdentifier("instance name", raw); err != nil {
		return InstanceName{}, err
	}
	return InstanceName{value: raw}, nil
}

func (n InstanceName) String() string { return n.value }

// ProfileName is a validated LXD profile name. Same format rules as Name.
type ProfileName struct {
	value string
}

// NewProfileName validates raw and returns it as a ProfileName.
func NewProfileName(raw string) (ProfileName, error) {
	if err := validateIdentifier("profile name", raw); err != nil {
		return ProfileName{}, err
	}
	return ProfileName{value: raw}, nil
}

func (n ProfileName) String() string { return n.value }

// instanceNameFor derives the instance name for an environment. The prefix
// keeps instances from different environments apart on a shared host.
func instanceNameFor(name Name) InstanceName {
	return InstanceName{value: instanceNamePrefix + name.value}
}

// profileNameFor derives the LXD profile name for an environment.
func profileNameFor(name Name) ProfileName {
	return ProfileName{value: profileNamePrefix + name.value}
}

func validateIdentifier(kind, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	if len(raw) > maxNameLength {
		return fmt.Errorf("%s %q exceeds %d characters", kind, raw, maxNameLength)
	}
	first := raw[0]
	if first < 'a' || first > 'z' {
		return fmt.Errorf("%s %q must start with a lowercase letter", kind, raw)
	}
	if strings.HasSuffix(raw, "-") {
		return fmt.Errorf("%s %q must not end with a dash", kind, raw)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return fmt.Errorf("%s %q contains invalid character %q: only lowercase letters, digits and dashes are allowed", kind, raw, string(c))
	}
	return nil
}
