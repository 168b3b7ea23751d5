package environment

import (
	"fmt"
	"net/netip"
	"time"
)

// Stable state names. They are the discriminator values in persisted records
// and the state strings shown to users, so they must never change.
const (
	StateNameCreated         = "created"
	StateNameProvisioning    = "provisioning"
	StateNameProvisioned     = "provisioned"
	StateNameConfiguring     = "configuring"
	StateNameConfigured      = "configured"
	StateNameReleasing       = "releasing"
	StateNameReleased        = "released"
	StateNameRunning         = "running"
	StateNameDestroying      = "destroying"
	StateNameDestroyed       = "destroyed"
	StateNameProvisionFailed = "provision_failed"
	StateNameConfigureFailed = "configure_failed"
	StateNameReleaseFailed   = "release_failed"
	StateNameRunFailed       = "run_failed"
	StateNameDestroyFailed   = "destroy_failed"
)

// Any is the type-erased envelope over the fifteen lifecycle state types.
// It is the only form that crosses the persistence boundary: repositories
// store and load Any values, and listing and display code reads environments
// through it without restoring a specific state.
//
// The union is closed: the unexported core method can only be satisfied by
// types in this package, and exactly the state types implement StateName.
// Converting a typed state value to Any is a plain interface conversion
// (total, infallible); going back is the fallible As<State> restoration.
type Any interface {
	// StateName returns the stable lowercase snake_case state name.
	StateName() string

	// State-independent read accessors, promoted from the shared core.
	Name() Name
	InstanceName() InstanceName
	ProfileName() ProfileName
	ProviderConfig() ProviderConfig
	ProviderName() string
	SSHCredentials() SSHCredentials
	SSHPort() int
	Tracker() TrackerStack
	CreatedAt() time.Time
	DataDir() string
	BuildDir() string
	TracesDir() string
	TemplatesDir() string
	TofuBuildDir() string
	AnsibleBuildDir() string
	ComposeBuildDir() string
	InstanceIP() (netip.Addr, bool)
	Registered() bool

	// core exposes the shared aggregate data to this package and seals the
	// union against outside implementations.
	core() env
}

func (e env) core() env { return e }

// UnexpectedStateError is returned when restoring an envelope to a state it
// is not in, or when an operation is attempted against the wrong state. It
// always signals a workflow-sequencing mistake; callers surface it to the
// user instead of retrying.
type UnexpectedStateError struct {
	Expected string
	Actual   string
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("expected state %q, but found %q", e.Expected, e.Actual)
}

// IsErrorState reports whether a is one of the failure states.
func IsErrorState(a Any) bool {
	switch a.StateName() {
	case StateNameProvisionFailed, StateNameConfigureFailed, StateNameReleaseFailed,
		StateNameRunFailed, StateNameDestroyFailed:
		return true
	}
	return false
}

// IsTerminalState reports whether no further transitions are expected from
// a. Running and Destroyed are terminal successes; every failure state is
// terminal until the user destroys the environment.
func IsTerminalState(a Any) bool {
	switch a.StateName() {
	case StateNameRunning, StateNameDestroyed:
		return true
	}
	return IsErrorState(a)
}

// ErrorDetails returns the failure summary for failure states, or false for
// success states.
func ErrorDetails(a Any) (string, bool) {
	switch s := a.(type) {
	case ProvisionFailed:
		return s.Failure().Base.ErrorSummary, true
	case ConfigureFailed:
		return s.Failure().Base.ErrorSummary, true
	case ReleaseFailed:
		return s.Failure().Base.ErrorSummary, true
	case RunFailed:
		return s.Failure().Base.ErrorSummary, true
	case DestroyFailed:
		return s.Failure().Base.ErrorSummary, true
	}
	return "", false
}

// Display renders a one-line human-readable description of the environment
// and its state.
func Display(a Any) string {
	out := fmt.Sprintf("Environment '%s' is in state: %s", a.Name(), a.StateName())
	if details, ok := ErrorDetails(a); ok {
		out += fmt.Sprintf(" (failed at: %s)", details)
	}
	return out
}

// StartDestroying begins destruction from any state that has a destroy edge
// in the transition graph: the settled states (Provisioned, Configured,
// Released, Running) and every failure state, including DestroyFailed for
// retries. All other states return an UnexpectedStateError; a repeated call
// while already Destroying is the destroy handler's no-op guard, not a
// machine edge.
func StartDestroying(a Any) (Destroying, error) {
	switch s := a.(type) {
	case Provisioned:
		return s.StartDestroying(), nil
	case Configured:
		return s.StartDestroying(), nil
	case Released:
		return s.StartDestroying(), nil
	case Running:
		return s.StartDestroying(), nil
	case ProvisionFailed:
		return s.StartDestroying(), nil
	case ConfigureFailed:
		return s.StartDestroying(), nil
	case ReleaseFailed:
		return s.StartDestroying(), nil
	case RunFailed:
		return s.StartDestroying(), nil
	case DestroyFailed:
		return s.StartDestroying(), nil
	}
	return Destroying{}, &UnexpectedStateError{
		Expected: "a destroyable state",
		Actual:   a.StateName(),
	}
}

// Destroy forces the environment to the Destroyed terminal state regardless
// of its current state, bypassing the Destroying workflow. It exists for the
// purge path and for tests; the destroy workflow goes through StartDestroying
// so infrastructure teardown is recorded. Destroying an already-destroyed
// environment returns it unchanged.
func Destroy(a Any) Destroyed {
	if d, ok := a.(Destroyed); ok {
		return d
	}
	return Destroyed{env: a.core()}
}
