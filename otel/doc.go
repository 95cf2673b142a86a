// Package otel wires OpenTelemetry tracing and metrics from config: OTLP
// exporters over gRPC or HTTP, tracer and meter providers, and the Observer
// that instrumented code uses to open spans with a trace-aware zap logger.
package otel
