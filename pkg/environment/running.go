package environment

// Running is the terminal success state: the tracker services are up.
type Running struct {
	env
}

// StateName implements Any.
func (Running) StateName() string { return StateNameRunning }

// RunFailed records a run workflow failure.
func (r Running) RunFailed(ctx RunFailureContext) RunFailed {
	return RunFailed{env: r.env, failure: ctx}
}

// StartDestroying begins the destroy workflow.
func (r Running) StartDestroying() Destroying {
	return Destroying{env: r.env}
}

// AsRunning restores the typed Running state from the envelope.
func AsRunning(a Any) (Running, error) {
	if s, ok := a.(Running); ok {
		return s, nil
	}
	return Running{}, &UnexpectedStateError{Expected: StateNameRunning, Actual: a.StateName()}
}
