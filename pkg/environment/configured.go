package environment

// Configured means the instance has its runtime stack installed and is ready
// for a release.
type Configured struct {
	env
}

// StateName implements Any.
func (Configured) StateName() string { return StateNameConfigured }

// StartReleasing begins the release workflow.
func (c Configured) StartReleasing() Releasing {
	return Releasing{env: c.env}
}

// StartDestroying begins the destroy workflow.
func (c Configured) StartDestroying() Destroying {
	return Destroying{env: c.env}
}

// AsConfigured restores the typed Configured state from the envelope.
func AsConfigured(a Any) (Configured, error) {
	if s, ok := a.(Configured); ok {
		return s, nil
	}
	return Configured{}, &UnexpectedStateError{Expected: StateNameConfigured, Actual: a.StateName()}
}
