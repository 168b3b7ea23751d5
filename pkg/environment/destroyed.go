package environment

// Destroyed is the terminal state: all managed infrastructure is gone. The
// record is kept for display until the user purges it; the last known
// instance address is retained for that purpose.
type Destroyed struct {
	env
}

// StateName implements Any.
func (Destroyed) StateName() string { return StateNameDestroyed }

// AsDestroyed restores the typed Destroyed state from the envelope.
func AsDestroyed(a Any) (Destroyed, error) {
	if s, ok := a.(Destroyed); ok {
		return s, nil
	}
	return Destroyed{}, &UnexpectedStateError{Expected: StateNameDestroyed, Actual: a.StateName()}
}
