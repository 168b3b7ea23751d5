package environment

import "net/netip"

// Created is the initial state: the environment exists as a persisted record
// but no infrastructure has been touched yet.
type Created struct {
	env
}

// StateName implements Any.
func (Created) StateName() string { return StateNameCreated }

// StartProvisioning begins the provision workflow.
func (c Created) StartProvisioning() Provisioning {
	return Provisioning{env: c.env}
}

// Register adopts pre-existing infrastructure instead of provisioning new
// infrastructure. The environment jumps directly to Provisioned with the
// given address and is marked registered, so the destroy workflow knows the
// instance is not managed by this tool.
func (c Created) Register(ip netip.Addr) Provisioned {
	e := c.env
	e.instanceIP = ip
	e.registered = true
	return Provisioned{env: e}
}

// AsCreated restores the typed Created state from the envelope.
func AsCreated(a Any) (Created, error) {
	if s, ok := a.(Created); ok {
		return s, nil
	}
	return Created{}, &UnexpectedStateError{Expected: StateNameCreated, Actual: a.StateName()}
}
