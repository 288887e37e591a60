// Package metrics tracks per-connection health.
//
// A Recorder accumulates counters and timestamps for one logical
// connection. Counters keep accumulating across reconnects; they only
// reset when the owning manager is discarded. The error log is a
// bounded ring so a long-lived connection with many transient errors
// cannot grow without limit.
//
// Collectors exports the same counters to Prometheus.
package metrics
