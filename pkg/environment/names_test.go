package environment

import (
	"strings"
	"testing"
)

func TestNewName(t *testing.T) {
	valid := []string{
		"dev",
		"e2e-full",
		"staging-2",
		"a",
		strings.Repeat("a", maxEnvironmentNameLength),
	}
	for _, raw := range valid {
		if _, err := NewName(raw); err != nil {
			t.Errorf("NewName(%q) returned error: %v", raw, err)
		}
	}

	invalid := []struct {
		raw    string
		reason string
	}{
		{"", "empty"},
		{strings.Repeat("a", maxEnvironmentNameLength+1), "too long"},
		{"1dev", "starts with digit"},
		{"-dev", "starts with dash"},
		{"dev-", "ends with dash"},
		{"Dev", "uppercase"},
		{"dev_1", "underscore"},
		{"dev.1", "dot"},
		{"dev 1", "space"},
	}
	for _, tc := range invalid {
		if _, err := NewName(tc.raw); err == nil {
			t.Errorf("NewName(%q) succeeded, want error (%s)", tc.raw, tc.reason)
		}
	}
}

func TestDerivedNames(t *testing.T) {
	name, err := NewName("e2e-full")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}

	if got := instanceNameFor(name).String(); got != "tracker-vm-e2e-full" {
		t.Errorf("instance name = %q, want %q", got, "tracker-vm-e2e-full")
	}
	if got := profileNameFor(name).String(); got != "tracker-e2e-full" {
		t.Errorf("profile name = %q, want %q", got, "tracker-e2e-full")
	}
}

func TestLongestNameDerivesValidIdentifiers(t *testing.T) {
	name, err := NewName(strings.Repeat("a", maxEnvironmentNameLength))
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}

	// The derived names go back through their validating constructors when a
	// record is loaded, so they must fit the shared cap.
	if _, err := NewInstanceName(instanceNameFor(name).String()); err != nil {
		t.Errorf("derived instance name rejected: %v", err)
	}
	if _, err := NewProfileName(profileNameFor(name).String()); err != nil {
		t.Errorf("derived profile name rejected: %v", err)
	}
}

func TestNameIsZero(t *testing.T) {
	var zero Name
	if !zero.IsZero() {
		t.Error("zero Name should report IsZero")
	}
	name, _ := NewName("dev")
	if name.IsZero() {
		t.Error("valid Name should not report IsZero")
	}
}
