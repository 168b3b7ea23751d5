package environment

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"
)

var testCreatedAt = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// newTestEnvironment builds a Created environment with deterministic inputs.
// The other test files lean on it so the fixture lives here, next to New.
func newTestEnvironment(t *testing.T, rawName string) Created {
	t.Helper()

	name, err := NewName(rawName)
	if err != nil {
		t.Fatalf("NewName(%q): %v", rawName, err)
	}
	profile, err := NewProfileName("tracker-" + rawName)
	if err != nil {
		t.Fatalf("NewProfileName: %v", err)
	}

	return New(CreateParams{
		Name:     name,
		Provider: NewLXDProviderConfig(LXDConfig{ProfileName: profile}),
		SSH: SSHCredentials{
			PrivateKeyPath: "/home/op/.ssh/tracker_rsa",
			PublicKeyPath:  "/home/op/.ssh/tracker_rsa.pub",
			Username:       "torrust",
		},
		SSHPort: 22,
		Tracker: TrackerStack{
			UDPPort:  6969,
			HTTPPort: 7070,
			APIPort:  1212,
			APIToken: "MyAccessToken",
		},
		WorkingDir: "/var/lib/trackerforge",
		CreatedAt:  testCreatedAt,
	})
}

func TestNewDerivesIdentifiersAndDirectories(t *testing.T) {
	c := newTestEnvironment(t, "e2e-full")

	if got := c.Name().String(); got != "e2e-full" {
		t.Errorf("Name = %q, want %q", got, "e2e-full")
	}
	if got := c.InstanceName().String(); got != "tracker-vm-e2e-full" {
		t.Errorf("InstanceName = %q, want %q", got, "tracker-vm-e2e-full")
	}
	if got := c.ProfileName().String(); got != "tracker-e2e-full" {
		t.Errorf("ProfileName = %q, want %q", got, "tracker-e2e-full")
	}

	wantData := filepath.Join("/var/lib/trackerforge", "data", "e2e-full")
	if got := c.DataDir(); got != wantData {
		t.Errorf("DataDir = %q, want %q", got, wantData)
	}
	wantBuild := filepath.Join("/var/lib/trackerforge", "build", "e2e-full")
	if got := c.BuildDir(); got != wantBuild {
		t.Errorf("BuildDir = %q, want %q", got, wantBuild)
	}
	if got, want := c.TracesDir(), filepath.Join(wantData, "traces"); got != want {
		t.Errorf("TracesDir = %q, want %q", got, want)
	}
	if got, want := c.TofuBuildDir(), filepath.Join(wantBuild, "tofu", "lxd"); got != want {
		t.Errorf("TofuBuildDir = %q, want %q", got, want)
	}
	if got, want := c.AnsibleBuildDir(), filepath.Join(wantBuild, "ansible"); got != want {
		t.Errorf("AnsibleBuildDir = %q, want %q", got, want)
	}
	if got, want := c.ComposeBuildDir(), filepath.Join(wantBuild, "compose"); got != want {
		t.Errorf("ComposeBuildDir = %q, want %q", got, want)
	}

	if !c.CreatedAt().Equal(testCreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt(), testCreatedAt)
	}
	if _, ok := c.InstanceIP(); ok {
		t.Error("fresh environment should have no instance IP")
	}
	if c.Registered() {
		t.Error("fresh environment should not be registered")
	}
}

func TestTofuBuildDirFollowsProvider(t *testing.T) {
	name, _ := NewName("hz")
	c := New(CreateParams{
		Name: name,
		Provider: NewHetznerProviderConfig(HetznerConfig{
			APIToken:   "token",
			ServerType: "cx22",
			Location:   "fsn1",
			Image:      "ubuntu-24.04",
		}),
		WorkingDir: "/tmp/work",
		CreatedAt:  testCreatedAt,
	})

	want := filepath.Join("/tmp/work", "build", "hz", "tofu", "hetzner")
	if got := c.TofuBuildDir(); got != want {
		t.Errorf("TofuBuildDir = %q, want %q", got, want)
	}
	if got := c.ProviderName(); got != "hetzner" {
		t.Errorf("ProviderName = %q, want %q", got, "hetzner")
	}
}

func TestProviderConfigAccessors(t *testing.T) {
	profile, _ := NewProfileName("tracker-dev")
	lxd := NewLXDProviderConfig(LXDConfig{ProfileName: profile})

	if lxd.Provider() != ProviderLXD {
		t.Errorf("Provider = %q, want %q", lxd.Provider(), ProviderLXD)
	}
	if cfg, ok := lxd.LXD(); !ok || cfg.ProfileName.String() != "tracker-dev" {
		t.Errorf("LXD() = (%v, %v), want profile tracker-dev", cfg, ok)
	}
	if _, ok := lxd.Hetzner(); ok {
		t.Error("Hetzner() on an LXD config should report false")
	}

	hz := NewHetznerProviderConfig(HetznerConfig{APIToken: "t", ServerType: "cx22", Location: "fsn1", Image: "ubuntu-24.04"})
	if hz.Provider() != ProviderHetzner {
		t.Errorf("Provider = %q, want %q", hz.Provider(), ProviderHetzner)
	}
	if cfg, ok := hz.Hetzner(); !ok || cfg.ServerType != "cx22" {
		t.Errorf("Hetzner() = (%v, %v), want server type cx22", cfg, ok)
	}
	if _, ok := hz.LXD(); ok {
		t.Error("LXD() on a Hetzner config should report false")
	}
}

func TestInstanceIPSurvivesTransitions(t *testing.T) {
	ip := netip.MustParseAddr("10.140.190.14")
	running := newTestEnvironment(t, "dev").
		StartProvisioning().
		Provisioned(ip).
		StartConfiguring().
		Configured().
		StartReleasing().
		Released().
		StartRunning()

	got, ok := running.InstanceIP()
	if !ok {
		t.Fatal("running environment should expose its instance IP")
	}
	if got != ip {
		t.Errorf("InstanceIP = %v, want %v", got, ip)
	}

	// The address stays readable after destruction for display purposes.
	destroyed := running.StartDestroying().Destroyed()
	if got, ok := destroyed.InstanceIP(); !ok || got != ip {
		t.Errorf("destroyed InstanceIP = (%v, %v), want (%v, true)", got, ok, ip)
	}
}
