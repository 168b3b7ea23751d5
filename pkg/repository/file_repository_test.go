package repository

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

func newTestCreated(t *testing.T, rawName string) environment.Created {
	t.Helper()

	name, err := environment.NewName(rawName)
	if err != nil {
		t.Fatalf("NewName(%q): %v", rawName, err)
	}
	profile, err := environment.NewProfileName("tracker-" + rawName)
	if err != nil {
		t.Fatalf("NewProfileName: %v", err)
	}

	return environment.New(environment.CreateParams{
		Name:     name,
		Provider: environment.NewLXDProviderConfig(environment.LXDConfig{ProfileName: profile}),
		SSH: environment.SSHCredentials{
			PrivateKeyPath: "/home/op/.ssh/tracker_rsa",
			PublicKeyPath:  "/home/op/.ssh/tracker_rsa.pub",
			Username:       "torrust",
		},
		SSHPort: 22,
		Tracker: environment.TrackerStack{
			UDPPort:  6969,
			HTTPPort: 7070,
			APIPort:  1212,
			APIToken: "MyAccessToken",
		},
		WorkingDir: t.TempDir(),
		CreatedAt:  time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC),
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	c := newTestCreated(t, "dev")

	if err := repo.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(c.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a saved environment")
	}
	if got := loaded.StateName(); got != environment.StateNameCreated {
		t.Errorf("StateName = %q, want %q", got, environment.StateNameCreated)
	}
	if loaded.Name() != c.Name() {
		t.Errorf("Name = %q, want %q", loaded.Name(), c.Name())
	}
}

func TestSaveReplacesPreviousRecord(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	c := newTestCreated(t, "dev")

	if err := repo.Save(c); err != nil {
		t.Fatalf("Save(created): %v", err)
	}
	provisioned := c.StartProvisioning().Provisioned(netip.MustParseAddr("10.0.0.5"))
	if err := repo.Save(provisioned); err != nil {
		t.Fatalf("Save(provisioned): %v", err)
	}

	loaded, err := repo.Load(c.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.StateName(); got != environment.StateNameProvisioned {
		t.Errorf("StateName = %q, want %q", got, environment.StateNameProvisioned)
	}
	if ip, ok := loaded.InstanceIP(); !ok || ip.String() != "10.0.0.5" {
		t.Errorf("InstanceIP = (%v, %v)", ip, ok)
	}
}

func TestLoadMissingReturnsNilNil(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	name, _ := environment.NewName("ghost")

	loaded, err := repo.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("Load of missing environment = %v, want nil", loaded)
	}
}

func TestLoadCorruptRecordFails(t *testing.T) {
	base := t.TempDir()
	repo := NewFileRepository(base)
	name, _ := environment.NewName("dev")

	dir := filepath.Join(base, "dev")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, recordFileName), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := repo.Load(name)
	var internal *environment.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Load of corrupt record = %v, want *environment.InternalError", err)
	}
}

func TestExistsAndDelete(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	c := newTestCreated(t, "dev")

	ok, err := repo.Exists(c.Name())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists before Save should be false")
	}

	if err := repo.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := repo.Exists(c.Name()); !ok {
		t.Error("Exists after Save should be true")
	}

	if err := repo.Delete(c.Name()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := repo.Exists(c.Name()); ok {
		t.Error("Exists after Delete should be false")
	}

	// Deleting again is a no-op.
	if err := repo.Delete(c.Name()); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestListSortsByName(t *testing.T) {
	repo := NewFileRepository(t.TempDir())

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := repo.Save(newTestCreated(t, name)); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d environments, want 3", len(all))
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i, a := range all {
		if got := a.Name().String(); got != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestListOnEmptyBase(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "never-created"))
	all, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List = %v, want empty", all)
	}
}

func TestLockExcludesSecondHolder(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	name, _ := environment.NewName("dev")

	unlock, err := repo.Lock(name)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := repo.Lock(name); !errors.Is(err, environment.ErrConflict) {
		t.Errorf("second Lock = %v, want ErrConflict", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	// Released lock can be retaken.
	unlock2, err := repo.Lock(name)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	if err := unlock2(); err != nil {
		t.Errorf("second unlock: %v", err)
	}
	// Releasing twice is a no-op.
	if err := unlock2(); err != nil {
		t.Errorf("repeated unlock: %v", err)
	}
}
