// Package telemetry wires the OpenTelemetry SDK: OTLP gRPC exporters
// for traces and metrics behind a single Init, noop when disabled.
package telemetry
