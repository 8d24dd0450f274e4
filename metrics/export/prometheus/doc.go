// Package prometheus renders goGate metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] takes a [goGate.Engine] and exposes an
// [http.Handler]. Counter names are prefixed gogate_*_total; latency
// histograms are gogate_*_latency_seconds. Nothing is registered in a
// global registry; callers mount the Handler.
package prometheus
