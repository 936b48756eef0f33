// Package prometheus renders credvault engine counters in Prometheus text exposition
// format. Counters are named credvault_*_total; the one histogram is
// credvault_authenticate_latency_seconds.
//
// Nothing is registered globally. Callers mount [Exporter.Handler] themselves.
package prometheus
