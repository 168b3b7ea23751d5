package environment

// Provisioned means infrastructure exists and the instance address is known.
type Provisioned struct {
	env
}

// StateName implements Any.
func (Provisioned) StateName() string { return StateNameProvisioned }

// StartConfiguring begins the configure workflow.
func (p Provisioned) StartConfiguring() Configuring {
	return Configuring{env: p.env}
}

// StartDestroying begins the destroy workflow.
func (p Provisioned) StartDestroying() Destroying {
	return Destroying{env: p.env}
}

// AsProvisioned restores the typed Provisioned state from the envelope.
func AsProvisioned(a Any) (Provisioned, error) {
	if s, ok := a.(Provisioned); ok {
		return s, nil
	}
	return Provisioned{}, &UnexpectedStateError{Expected: StateNameProvisioned, Actual: a.StateName()}
}
