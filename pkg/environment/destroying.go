package environment

// Destroying is the in-progress state while the destroy workflow tears down
// infrastructure and cleans up state files. Whether infrastructure teardown
// is attempted at all is decided by the workflow from on-disk artifacts, not
// from which state preceded Destroying.
type Destroying struct {
	env
}

// StateName implements Any.
func (Destroying) StateName() string { return StateNameDestroying }

// Destroyed completes the destroy workflow.
func (d Destroying) Destroyed() Destroyed {
	return Destroyed{env: d.env}
}

// DestroyFailed records a destroy workflow failure. The destroy workflow can
// be retried from the resulting state.
func (d Destroying) DestroyFailed(ctx DestroyFailureContext) DestroyFailed {
	return DestroyFailed{env: d.env, failure: ctx}
}

// AsDestroying restores the typed Destroying state from the envelope.
func AsDestroying(a Any) (Destroying, error) {
	if s, ok := a.(Destroying); ok {
		return s, nil
	}
	return Destroying{}, &UnexpectedStateError{Expected: StateNameDestroying, Actual: a.StateName()}
}
