package environment

// Configuring is the in-progress state while the configure workflow installs
// the runtime stack (Docker, Docker Compose) on the instance.
type Configuring struct {
	env
}

// StateName implements Any.
func (Configuring) StateName() string { return StateNameConfiguring }

// Configured completes the configure workflow.
func (c Configuring) Configured() Configured {
	return Configured{env: c.env}
}

// ConfigureFailed records a configure workflow failure.
func (c Configuring) ConfigureFailed(ctx ConfigureFailureContext) ConfigureFailed {
	return ConfigureFailed{env: c.env, failure: ctx}
}

// AsConfiguring restores the typed Configuring state from the envelope.
func AsConfiguring(a Any) (Configuring, error) {
	if s, ok := a.(Configuring); ok {
		return s, nil
	}
	return Configuring{}, &UnexpectedStateError{Expected: StateNameConfiguring, Actual: a.StateName()}
}
