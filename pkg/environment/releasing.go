package environment

// Releasing is the in-progress state while the release workflow transfers
// the tracker stack artifacts to the instance.
type Releasing struct {
	env
}

// StateName implements Any.
func (Releasing) StateName() string { return StateNameReleasing }

// Released completes the release workflow.
func (r Releasing) Released() Released {
	return Released{env: r.env}
}

// ReleaseFailed records a release workflow failure.
func (r Releasing) ReleaseFailed(ctx ReleaseFailureContext) ReleaseFailed {
	return ReleaseFailed{env: r.env, failure: ctx}
}

// AsReleasing restores the typed Releasing state from the envelope.
func AsReleasing(a Any) (Releasing, error) {
	if s, ok := a.(Releasing); ok {
		return s, nil
	}
	return Releasing{}, &UnexpectedStateError{Expected: StateNameReleasing, Actual: a.StateName()}
}
