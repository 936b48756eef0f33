// Package otel exposes credvault engine counters as OpenTelemetry observable
// instruments. One callback reads [credvault.Engine.MetricsSnapshot] per collection.
//
// The caller owns the MeterProvider and passes in a Meter.
package otel
