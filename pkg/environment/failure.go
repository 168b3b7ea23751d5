package environment

import (
	"time"

	"github.com/google/uuid"
)

// ErrorKind classifies a workflow failure. Kinds are used for telemetry and
// for choosing user-facing help text; they never drive control flow inside
// the state machine. The values are stable and appear verbatim in persisted
// records.
type ErrorKind string

const (
	ErrorKindConfiguration           ErrorKind = "Configuration"
	ErrorKindCommandExecution        ErrorKind = "CommandExecution"
	ErrorKindNetworkConnectivity     ErrorKind = "NetworkConnectivity"
	ErrorKindStatePersistence        ErrorKind = "StatePersistence"
	ErrorKindTemplateRendering       ErrorKind = "TemplateRendering"
	ErrorKindInfrastructureOperation ErrorKind = "InfrastructureOperation"
	ErrorKindConfigurationTimeout    ErrorKind = "ConfigurationTimeout"
	ErrorKindInternal                ErrorKind = "Internal"
)

// TraceID correlates one workflow execution attempt with its run-history
// record and optional trace file. It is opaque to the state machine.
type TraceID string

// NewTraceID returns a fresh random trace id.
func NewTraceID() TraceID {
	return TraceID(uuid.NewString())
}

// BaseFailureContext carries the failure metadata common to every workflow.
// It is built exactly once, by the workflow handler at the moment a step
// fails, and is immutable afterwards.
type BaseFailureContext struct {
	// ErrorSummary is a single human-readable line describing the failure.
	ErrorSummary string

	// FailedAt is when the step failed.
	FailedAt time.Time

	// ExecutionStartedAt is when the workflow attempt started.
	ExecutionStartedAt time.Time

	// ExecutionDuration is how long the attempt ran before failing.
	ExecutionDuration time.Duration

	// TraceID identifies the workflow attempt.
	TraceID TraceID

	// TraceFilePath points at the detailed trace file written for this
	// failure, when one was produced. Empty otherwise.
	TraceFilePath string
}
