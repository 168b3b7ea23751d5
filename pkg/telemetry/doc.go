// Package telemetry provides structured logging and tracing for the
// deployer. Logging is zerolog behind a thin wrapper; tracing is
// OpenTelemetry with a stdout exporter for local debugging. Workflow
// handlers carry both through context.
package telemetry
