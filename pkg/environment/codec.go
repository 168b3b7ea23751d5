package environment

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"
)

// record is the persisted JSON shape: a discriminated union over the state
// name. State-independent fields are always present; the failure fields are
// set only for failure states, flattened at the top level.
type record struct {
	State        string         `json:"state"`
	Name         string         `json:"name"`
	InstanceName string         `json:"instance_name"`
	ProfileName  string         `json:"profile_name"`
	Provider     providerRecord `json:"provider"`
	SSH          sshRecord      `json:"ssh"`
	SSHPort      int            `json:"ssh_port"`
	Tracker      trackerRecord  `json:"tracker"`
	DataDir      string         `json:"data_dir"`
	BuildDir     string         `json:"build_dir"`
	CreatedAt    time.Time      `json:"created_at"`
	InstanceIP   string         `json:"instance_ip,omitempty"`
	Registered   bool           `json:"registered,omitempty"`

	FailedStep          string     `json:"failed_step,omitempty"`
	ErrorKind           string     `json:"error_kind,omitempty"`
	ErrorSummary        string     `json:"error_summary,omitempty"`
	FailedAt            *time.Time `json:"failed_at,omitempty"`
	ExecutionStartedAt  *time.Time `json:"execution_started_at,omitempty"`
	ExecutionDurationNS int64      `json:"execution_duration_ns,omitempty"`
	TraceID             string     `json:"trace_id,omitempty"`
	TraceFilePath       string     `json:"trace_file_path,omitempty"`
}

type providerRecord struct {
	Provider    string `json:"provider"`
	ProfileName string `json:"profile_name,omitempty"`
	APIToken    string `json:"api_token,omitempty"`
	ServerType  string `json:"server_type,omitempty"`
	Location    string `json:"location,omitempty"`
	Image       string `json:"image,omitempty"`
}

type sshRecord struct {
	PrivateKeyPath string `json:"private_key_path"`
	PublicKeyPath  string `json:"public_key_path"`
	Username       string `json:"username"`
}

type trackerRecord struct {
	UDPPort  int    `json:"udp_port"`
	HTTPPort int    `json:"http_port"`
	APIPort  int    `json:"api_port"`
	APIToken string `json:"api_token,omitempty"`
}

// Marshal encodes the envelope into the persisted JSON record.
func Marshal(a Any) ([]byte, error) {
	e := a.core()

	rec := record{
		State:        a.StateName(),
		Name:         e.name.String(),
		InstanceName: e.instanceName.String(),
		ProfileName:  e.profileName.String(),
		SSH: sshRecord{
			PrivateKeyPath: e.ssh.PrivateKeyPath,
			PublicKeyPath:  e.ssh.PublicKeyPath,
			Username:       e.ssh.Username,
		},
		SSHPort: e.sshPort,
		Tracker: trackerRecord{
			UDPPort:  e.tracker.UDPPort,
			HTTPPort: e.tracker.HTTPPort,
			APIPort:  e.tracker.APIPort,
			APIToken: e.tracker.APIToken,
		},
		DataDir:    e.dataDir,
		BuildDir:   e.buildDir,
		CreatedAt:  e.createdAt,
		Registered: e.registered,
	}

	switch cfg := e.provider; cfg.Provider() {
	case ProviderLXD:
		lxd, _ := cfg.LXD()
		rec.Provider = providerRecord{
			Provider:    string(ProviderLXD),
			ProfileName: lxd.ProfileName.String(),
		}
	case ProviderHetzner:
		hz, _ := cfg.Hetzner()
		rec.Provider = providerRecord{
			Provider:   string(ProviderHetzner),
			APIToken:   hz.APIToken,
			ServerType: hz.ServerType,
			Location:   hz.Location,
			Image:      hz.Image,
		}
	}

	if e.instanceIP.IsValid() {
		rec.InstanceIP = e.instanceIP.String()
	}

	switch s := a.(type) {
	case ProvisionFailed:
		f := s.Failure()
		rec.FailedStep = string(f.FailedStep)
		rec.ErrorKind = string(f.Kind)
		fillBase(&rec, f.Base)
	case ConfigureFailed:
		f := s.Failure()
		rec.FailedStep = string(f.FailedStep)
		rec.ErrorKind = string(f.Kind)
		fillBase(&rec, f.Base)
	case ReleaseFailed:
		f := s.Failure()
		rec.FailedStep = string(f.FailedStep)
		rec.ErrorKind = string(f.Kind)
		fillBase(&rec, f.Base)
	case RunFailed:
		f := s.Failure()
		rec.FailedStep = string(f.FailedStep)
		rec.ErrorKind = string(f.Kind)
		fillBase(&rec, f.Base)
	case DestroyFailed:
		f := s.Failure()
		rec.FailedStep = string(f.FailedStep)
		rec.ErrorKind = string(f.Kind)
		fillBase(&rec, f.Base)
	}

	return json.MarshalIndent(rec, "", "  ")
}

func fillBase(rec *record, base BaseFailureContext) {
	rec.ErrorSummary = base.ErrorSummary
	failedAt := base.FailedAt
	startedAt := base.ExecutionStartedAt
	rec.FailedAt = &failedAt
	rec.ExecutionStartedAt = &startedAt
	rec.ExecutionDurationNS = int64(base.ExecutionDuration)
	rec.TraceID = string(base.TraceID)
	rec.TraceFilePath = base.TraceFilePath
}

// Unmarshal decodes a persisted record back into the envelope. The state
// discriminator selects the concrete type; unknown or malformed records
// return an error rather than a partially filled environment.
func Unmarshal(data []byte) (Any, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding environment record: %w", err)
	}

	name, err := NewName(rec.Name)
	if err != nil {
		return nil, fmt.Errorf("invalid environment record: %w", err)
	}
	instanceName, err := NewInstanceName(rec.InstanceName)
	if err != nil {
		return nil, fmt.Errorf("invalid environment record: %w", err)
	}
	profileName, err := NewProfileName(rec.ProfileName)
	if err != nil {
		return nil, fmt.Errorf("invalid environment record: %w", err)
	}

	var provider ProviderConfig
	switch rec.Provider.Provider {
	case string(ProviderLXD):
		pn, err := NewProfileName(rec.Provider.ProfileName)
		if err != nil {
			return nil, fmt.Errorf("invalid environment record: %w", err)
		}
		provider = NewLXDProviderConfig(LXDConfig{ProfileName: pn})
	case string(ProviderHetzner):
		provider = NewHetznerProviderConfig(HetznerConfig{
			APIToken:   rec.Provider.APIToken,
			ServerType: rec.Provider.ServerType,
			Location:   rec.Provider.Location,
			Image:      rec.Provider.Image,
		})
	default:
		return nil, fmt.Errorf("invalid environment record: unknown provider %q", rec.Provider.Provider)
	}

	e := env{
		name:         name,
		instanceName: instanceName,
		profileName:  profileName,
		provider:     provider,
		ssh: SSHCredentials{
			PrivateKeyPath: rec.SSH.PrivateKeyPath,
			PublicKeyPath:  rec.SSH.PublicKeyPath,
			Username:       rec.SSH.Username,
		},
		sshPort: rec.SSHPort,
		tracker: TrackerStack{
			UDPPort:  rec.Tracker.UDPPort,
			HTTPPort: rec.Tracker.HTTPPort,
			APIPort:  rec.Tracker.APIPort,
			APIToken: rec.Tracker.APIToken,
		},
		dataDir:    rec.DataDir,
		buildDir:   rec.BuildDir,
		createdAt:  rec.CreatedAt,
		registered: rec.Registered,
	}

	if rec.InstanceIP != "" {
		ip, err := netip.ParseAddr(rec.InstanceIP)
		if err != nil {
			return nil, fmt.Errorf("invalid environment record: instance_ip: %w", err)
		}
		e.instanceIP = ip
	}

	switch rec.State {
	case StateNameCreated:
		return Created{env: e}, nil
	case StateNameProvisioning:
		return Provisioning{env: e}, nil
	case StateNameProvisioned:
		return Provisioned{env: e}, nil
	case StateNameConfiguring:
		return Configuring{env: e}, nil
	case StateNameConfigured:
		return Configured{env: e}, nil
	case StateNameReleasing:
		return Releasing{env: e}, nil
	case StateNameReleased:
		return Released{env: e}, nil
	case StateNameRunning:
		return Running{env: e}, nil
	case StateNameDestroying:
		return Destroying{env: e}, nil
	case StateNameDestroyed:
		return Destroyed{env: e}, nil
	case StateNameProvisionFailed:
		return ProvisionFailed{env: e, failure: ProvisionFailureContext{
			FailedStep: ProvisionStep(rec.FailedStep),
			Kind:       ErrorKind(rec.ErrorKind),
			Base:       baseFrom(rec),
		}}, nil
	case StateNameConfigureFailed:
		return ConfigureFailed{env: e, failure: ConfigureFailureContext{
			FailedStep: ConfigureStep(rec.FailedStep),
			Kind:       ErrorKind(rec.ErrorKind),
			Base:       baseFrom(rec),
		}}, nil
	case StateNameReleaseFailed:
		return ReleaseFailed{env: e, failure: ReleaseFailureContext{
			FailedStep: ReleaseStep(rec.FailedStep),
			Kind:       ErrorKind(rec.ErrorKind),
			Base:       baseFrom(rec),
		}}, nil
	case StateNameRunFailed:
		return RunFailed{env: e, failure: RunFailureContext{
			FailedStep: RunStep(rec.FailedStep),
			Kind:       ErrorKind(rec.ErrorKind),
			Base:       baseFrom(rec),
		}}, nil
	case StateNameDestroyFailed:
		return DestroyFailed{env: e, failure: DestroyFailureContext{
			FailedStep: DestroyStep(rec.FailedStep),
			Kind:       ErrorKind(rec.ErrorKind),
			Base:       baseFrom(rec),
		}}, nil
	}
	return nil, fmt.Errorf("invalid environment record: unknown state %q", rec.State)
}

func baseFrom(rec record) BaseFailureContext {
	base := BaseFailureContext{
		ErrorSummary:      rec.ErrorSummary,
		ExecutionDuration: time.Duration(rec.ExecutionDurationNS),
		TraceID:           TraceID(rec.TraceID),
		TraceFilePath:     rec.TraceFilePath,
	}
	if rec.FailedAt != nil {
		base.FailedAt = *rec.FailedAt
	}
	if rec.ExecutionStartedAt != nil {
		base.ExecutionStartedAt = *rec.ExecutionStartedAt
	}
	return base
}
