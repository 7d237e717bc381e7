// Package metrics exposes Prometheus collectors for the exchange service.
//
// Counters track record state transitions and engine operations, a histogram times the
// batch sync sweeps. Handler serves them on the Fiber app at /metrics.
package metrics
