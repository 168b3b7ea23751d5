package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/trackerforge/trackerforge/pkg/environment"
	"github.com/trackerforge/trackerforge/pkg/infra"
	"github.com/trackerforge/trackerforge/pkg/stores"
	"github.com/trackerforge/trackerforge/pkg/telemetry"
	"github.com/trackerforge/trackerforge/pkg/trace"
)

var errNoInstanceIP = errors.New("environment has no instance address")

// attempt is the bookkeeping around one workflow execution: the run-history
// row, the root span, and the failure context assembled if a step fails.
type attempt struct {
	svc      *Service
	workflow string
	env      environment.Any

	traceID   environment.TraceID
	startedAt time.Time

	span oteltrace.Span
	log  *telemetry.Logger
}

// begin opens the attempt: one run-history row and one root span.
func (s *Service) begin(ctx context.Context, workflow string, env environment.Any) (*attempt, context.Context) {
	a := &attempt{
		svc:       s,
		workflow:  workflow,
		env:       env,
		traceID:   s.deps.NewTraceID(),
		startedAt: s.deps.Clock(),
	}

	a.log = s.deps.Logger.
		WithEnvironment(env.Name().String()).
		WithWorkflow(workflow).
		WithTraceID(string(a.traceID))
	ctx = a.log.WithContext(ctx)

	if s.deps.Tracer != nil {
		ctx, a.span = s.deps.Tracer.StartWorkflowSpan(ctx, workflow, env.Name().String(), string(a.traceID))
	}

	if s.deps.Runs != nil {
		err := s.deps.Runs.CreateRun(ctx, &stores.DeploymentRun{
			ID:          string(a.traceID),
			Environment: env.Name().String(),
			Workflow:    workflow,
			Status:      stores.RunStatusRunning,
			StartedAt:   a.startedAt,
		})
		if err != nil {
			// History is best effort; the workflow itself must not fail on it.
			a.log.WithError(err).Warn("failed to record run start")
		}
	}

	a.log.Infof("%s workflow started", workflow)
	return a, ctx
}

// step executes one named unit of work, recording its span and step events.
func (a *attempt) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	log := a.log.WithStep(name)
	log.Debug("step started")

	var span oteltrace.Span
	if a.svc.deps.Tracer != nil {
		ctx, span = a.svc.deps.Tracer.StartStepSpan(ctx, name)
		defer span.End()
	}

	a.recordStepEvent(ctx, name, stores.StepStatusStarted, nil)

	if err := fn(ctx); err != nil {
		msg := err.Error()
		a.recordStepEvent(ctx, name, stores.StepStatusFailed, &msg)
		if span != nil {
			telemetry.RecordError(span, err)
		}
		log.WithError(err).Error("step failed")
		return err
	}

	a.recordStepEvent(ctx, name, stores.StepStatusCompleted, nil)
	if span != nil {
		telemetry.RecordSuccess(span)
	}
	log.Debug("step completed")
	return nil
}

func (a *attempt) recordStepEvent(ctx context.Context, step string, status stores.StepStatus, message *string) {
	if a.svc.deps.Runs == nil {
		return
	}
	err := a.svc.deps.Runs.AppendStepEvent(ctx, &stores.StepEvent{
		RunID:     string(a.traceID),
		Step:      step,
		Status:    status,
		Message:   message,
		Timestamp: a.svc.deps.Clock(),
	})
	if err != nil {
		a.log.WithError(err).Warn("failed to record step event")
	}
}

// fail closes the attempt as failed: it writes the failure trace file,
// completes the run row, and returns the base failure context for the
// failure state.
func (a *attempt) fail(ctx context.Context, step string, kind environment.ErrorKind, err error) environment.BaseFailureContext {
	failedAt := a.svc.deps.Clock()

	var commandLines []string
	var cmdErr *infra.CommandError
	if errors.As(err, &cmdErr) {
		commandLines = cmdErr.OutputLines()
	}

	tracePath := ""
	writer := a.svc.deps.NewTraceWriter(a.env.TracesDir())
	path, werr := writer.Write(trace.Entry{
		Workflow:     a.workflow,
		Environment:  a.env.Name(),
		TraceID:      a.traceID,
		FailedStep:   step,
		Kind:         kind,
		StartedAt:    a.startedAt,
		FailedAt:     failedAt,
		Err:          err,
		CommandLines: commandLines,
	})
	if werr != nil {
		a.log.WithError(werr).Warn("failed to write failure trace")
	} else {
		tracePath = path
	}

	if a.svc.deps.Runs != nil {
		msg := err.Error()
		if cerr := a.svc.deps.Runs.CompleteRun(ctx, string(a.traceID), stores.RunStatusFailed, &step, &msg); cerr != nil {
			a.log.WithError(cerr).Warn("failed to record run failure")
		}
	}
	if a.span != nil {
		telemetry.RecordError(a.span, err)
		a.span.End()
	}
	a.log.WithError(err).Errorf("%s workflow failed at step %s", a.workflow, step)

	return environment.BaseFailureContext{
		ErrorSummary:       fmt.Sprintf("%s failed at %s: %v", a.workflow, step, err),
		FailedAt:           failedAt,
		ExecutionStartedAt: a.startedAt,
		ExecutionDuration:  failedAt.Sub(a.startedAt),
		TraceID:            a.traceID,
		TraceFilePath:      tracePath,
	}
}

// succeed closes the attempt as completed.
func (a *attempt) succeed(ctx context.Context) {
	if a.svc.deps.Runs != nil {
		if err := a.svc.deps.Runs.CompleteRun(ctx, string(a.traceID), stores.RunStatusCompleted, nil, nil); err != nil {
			a.log.WithError(err).Warn("failed to record run completion")
		}
	}
	if a.span != nil {
		telemetry.RecordSuccess(a.span)
		a.span.End()
	}
	a.log.Infof("%s workflow completed", a.workflow)
}
