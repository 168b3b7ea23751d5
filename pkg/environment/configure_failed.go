package environment

// ConfigureStep names the units of work in the configure workflow.
type ConfigureStep string

const (
	ConfigureStepWaitCloudInit        ConfigureStep = "WaitCloudInit"
	ConfigureStepInstallDocker        ConfigureStep = "InstallDocker"
	ConfigureStepInstallDockerCompose ConfigureStep = "InstallDockerCompose"
)

// ConfigureFailureContext is the failure context attached to the
// ConfigureFailed state.
type ConfigureFailureContext struct {
	FailedStep ConfigureStep
	Kind       ErrorKind
	Base       BaseFailureContext
}

// ConfigureFailed is the error state for a failed configure workflow.
type ConfigureFailed struct {
	env
	failure ConfigureFailureContext
}

// StateName implements Any.
func (ConfigureFailed) StateName() string { return StateNameConfigureFailed }

// Failure returns the context captured when configuration failed.
func (c ConfigureFailed) Failure() ConfigureFailureContext { return c.failure }

// StartDestroying begins the destroy workflow.
func (c ConfigureFailed) StartDestroying() Destroying {
	return Destroying{env: c.env}
}

// AsConfigureFailed restores the typed ConfigureFailed state from the
// envelope.
func AsConfigureFailed(a Any) (ConfigureFailed, error) {
	if s, ok := a.(ConfigureFailed); ok {
		return s, nil
	}
	return ConfigureFailed{}, &UnexpectedStateError{Expected: StateNameConfigureFailed, Actual: a.StateName()}
}
