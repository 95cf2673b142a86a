// Package layer holds the per-layer metadata logic of the tracing
// instrumentation: it accumulates the route fragments of nested routers,
// classifies each layer into a span name and attributes, and decides which
// layers the configured filter leaves out.
//
// Everything here runs synchronously on the request goroutine and never
// fails the request: a filter predicate that panics simply does not match.
package layer
