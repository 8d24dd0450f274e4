// Package otel binds goGate counters and histograms to OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and
// one Int64ObservableGauge per histogram bucket. A single callback reads
// [goGate.Engine.MetricsSnapshot] on each collection cycle. Callers own
// the MeterProvider.
package otel
