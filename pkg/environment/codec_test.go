package environment

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	for _, s := range allStates(t) {
		name := s.StateName()

		data, err := Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", name, err)
		}
		restored, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal(%s): %v", name, err)
		}

		if got := restored.StateName(); got != name {
			t.Errorf("round trip changed state %q to %q", name, got)
		}
		if restored.Name() != s.Name() {
			t.Errorf("%s: round trip changed name", name)
		}
		if restored.InstanceName() != s.InstanceName() {
			t.Errorf("%s: round trip changed instance name", name)
		}
		if restored.SSHCredentials() != s.SSHCredentials() {
			t.Errorf("%s: round trip changed SSH credentials", name)
		}
		if restored.Tracker() != s.Tracker() {
			t.Errorf("%s: round trip changed tracker config", name)
		}
		if !restored.CreatedAt().Equal(s.CreatedAt()) {
			t.Errorf("%s: round trip changed created_at", name)
		}
		if restored.DataDir() != s.DataDir() || restored.BuildDir() != s.BuildDir() {
			t.Errorf("%s: round trip changed directories", name)
		}

		wantIP, wantOK := s.InstanceIP()
		gotIP, gotOK := restored.InstanceIP()
		if wantOK != gotOK || (wantOK && wantIP != gotIP) {
			t.Errorf("%s: round trip changed instance IP: got (%v, %v), want (%v, %v)", name, gotIP, gotOK, wantIP, wantOK)
		}
		if restored.Registered() != s.Registered() {
			t.Errorf("%s: round trip changed registered flag", name)
		}
	}
}

func TestRoundTripLongestName(t *testing.T) {
	// The derived instance name re-enters NewInstanceName on load, so a name
	// at the cap must still round trip.
	c := newTestEnvironment(t, "b"+strings.Repeat("a", maxEnvironmentNameLength-1))

	data, err := Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored.Name() != c.Name() {
		t.Errorf("round trip changed name %q to %q", c.Name(), restored.Name())
	}
	if restored.InstanceName() != c.InstanceName() {
		t.Errorf("round trip changed instance name %q to %q", c.InstanceName(), restored.InstanceName())
	}
	if restored.ProfileName() != c.ProfileName() {
		t.Errorf("round trip changed profile name %q to %q", c.ProfileName(), restored.ProfileName())
	}
}

func TestMarshalWritesStateDiscriminator(t *testing.T) {
	c := newTestEnvironment(t, "dev")
	data, err := Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	var state string
	if err := json.Unmarshal(raw["state"], &state); err != nil {
		t.Fatalf("decoding state field: %v", err)
	}
	if state != "created" {
		t.Errorf("state = %q, want %q", state, "created")
	}
	if _, ok := raw["failed_step"]; ok {
		t.Error("success state record should not carry failure fields")
	}
	if _, ok := raw["instance_ip"]; ok {
		t.Error("created record should not carry an instance IP")
	}
}

func TestFailureContextRoundTrip(t *testing.T) {
	base := testFailureBase()
	failed := newTestEnvironment(t, "dev").
		StartProvisioning().
		ProvisionFailed(ProvisionFailureContext{
			FailedStep: ProvisionStepTofuApply,
			Kind:       ErrorKindInfrastructureOperation,
			Base:       base,
		})

	data, err := Marshal(failed)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Failure fields are flattened at the top level of the record.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	for _, field := range []string{"failed_step", "error_kind", "error_summary", "failed_at", "execution_started_at", "execution_duration_ns", "trace_id", "trace_file_path"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("record missing failure field %q", field)
		}
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	typed, err := AsProvisionFailed(restored)
	if err != nil {
		t.Fatalf("AsProvisionFailed: %v", err)
	}

	f := typed.Failure()
	if f.FailedStep != ProvisionStepTofuApply {
		t.Errorf("FailedStep = %q, want %q", f.FailedStep, ProvisionStepTofuApply)
	}
	if f.Kind != ErrorKindInfrastructureOperation {
		t.Errorf("Kind = %q, want %q", f.Kind, ErrorKindInfrastructureOperation)
	}
	if f.Base.ErrorSummary != base.ErrorSummary {
		t.Errorf("ErrorSummary = %q, want %q", f.Base.ErrorSummary, base.ErrorSummary)
	}
	if !f.Base.FailedAt.Equal(base.FailedAt) {
		t.Errorf("FailedAt = %v, want %v", f.Base.FailedAt, base.FailedAt)
	}
	if !f.Base.ExecutionStartedAt.Equal(base.ExecutionStartedAt) {
		t.Errorf("ExecutionStartedAt = %v, want %v", f.Base.ExecutionStartedAt, base.ExecutionStartedAt)
	}
	if f.Base.ExecutionDuration != base.ExecutionDuration {
		t.Errorf("ExecutionDuration = %v, want %v", f.Base.ExecutionDuration, base.ExecutionDuration)
	}
	if f.Base.TraceID != base.TraceID {
		t.Errorf("TraceID = %q, want %q", f.Base.TraceID, base.TraceID)
	}
	if f.Base.TraceFilePath != base.TraceFilePath {
		t.Errorf("TraceFilePath = %q, want %q", f.Base.TraceFilePath, base.TraceFilePath)
	}
}

func TestProviderConfigRoundTrip(t *testing.T) {
	t.Run("lxd", func(t *testing.T) {
		c := newTestEnvironment(t, "dev")
		data, err := Marshal(c)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		restored, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		lxd, ok := restored.ProviderConfig().LXD()
		if !ok {
			t.Fatal("restored provider should be LXD")
		}
		if got := lxd.ProfileName.String(); got != "tracker-dev" {
			t.Errorf("profile = %q, want %q", got, "tracker-dev")
		}
	})

	t.Run("hetzner", func(t *testing.T) {
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
		data, err := Marshal(c)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		restored, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		hz, ok := restored.ProviderConfig().Hetzner()
		if !ok {
			t.Fatal("restored provider should be Hetzner")
		}
		if hz.ServerType != "cx22" || hz.Location != "fsn1" || hz.Image != "ubuntu-24.04" || hz.APIToken != "token" {
			t.Errorf("Hetzner config = %+v", hz)
		}
	})
}

func TestUnmarshalRejectsMalformedRecords(t *testing.T) {
	valid, err := Marshal(newTestEnvironment(t, "dev"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"unknown state", func(m map[string]any) { m["state"] = "paused" }},
		{"empty state", func(m map[string]any) { m["state"] = "" }},
		{"invalid name", func(m map[string]any) { m["name"] = "Not Valid" }},
		{"unknown provider", func(m map[string]any) {
			m["provider"] = map[string]any{"provider": "aws"}
		}},
		{"bad instance ip", func(m map[string]any) { m["instance_ip"] = "not-an-ip" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m map[string]any
			if err := json.Unmarshal(valid, &m); err != nil {
				t.Fatalf("decoding fixture: %v", err)
			}
			tc.mutate(m)
			data, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("re-encoding fixture: %v", err)
			}
			if _, err := Unmarshal(data); err == nil {
				t.Error("Unmarshal should reject the record")
			}
		})
	}

	if _, err := Unmarshal([]byte("{not json")); err == nil || !strings.Contains(err.Error(), "decoding") {
		t.Errorf("Unmarshal of invalid JSON = %v, want decode error", err)
	}
}
