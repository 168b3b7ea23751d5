package stores

import (
	"context"
	"time"
)

// RunStatus is the lifecycle of one workflow execution attempt.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StepStatus is the outcome of a single step inside a run.
type StepStatus string

const (
	StepStatusStarted   StepStatus = "started"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// DeploymentRun is one workflow execution attempt. The ID is the workflow
// trace id, so a failure context in a persisted environment record links
// straight to its history row.
type DeploymentRun struct {
	ID          string     `json:"id"`
	Environment string     `json:"environment"`
	Workflow    string     `json:"workflow"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedStep  *string    `json:"failed_step,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

// StepEvent is one entry in the append-only step log of a run.
type StepEvent struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Step      string     `json:"step"`
	Status    StepStatus `json:"status"`
	Message   *string    `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// RunStore defines the run-history persistence contract.
type RunStore interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	CreateRun(ctx context.Context, run *DeploymentRun) error
	CompleteRun(ctx context.Context, id string, status RunStatus, failedStep, errMsg *string) error
	GetRun(ctx context.Context, id string) (*DeploymentRun, error)
	ListRunsByEnvironment(ctx context.Context, environment string, limit, offset int) ([]*DeploymentRun, error)
	DeleteRunsByEnvironment(ctx context.Context, environment string) (int64, error)

	// Step event operations
	AppendStepEvent(ctx context.Context, event *StepEvent) error
	ListStepEvents(ctx context.Context, runID string) ([]*StepEvent, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
