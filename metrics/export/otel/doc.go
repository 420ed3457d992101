// Package otel provides OpenTelemetry metric exporter bindings for
// authkit counters and histograms.
//
// [NewExporter] registers Int64ObservableCounter instruments for each
// authkit metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [authkit.Engine.MetricsSnapshot] on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
