// Package reconcile drives exchange records through their lifecycle by observing the
// remote storage of their backend.
//
// # Operations
//
//   - CheckOutput: a sent file showed up in the done folder (processed, optionally with
//     an ack) or in the error folder (rejected, with a ".error" report).
//   - CheckInput: a partner file showed up in the input pending folder.
//   - Send: put the record payload in the output pending folder, unless the partner
//     already processed or rejected it.
//   - Process: import a received input file through the processor of its type.
//
// Each operation applies at most one transition from the table in transitions.go and
// produces exactly one notification per transition, so polling a settled record is a
// no-op. Missing files are the normal "still pending" signal, never an error.
//
// # Concurrency
//
// Operations hold a per-record lock (MutexLocker, or FileLocker across processes) and
// reload the record under it. Sweeps over many records can run in parallel; two callers
// working on the same record are serialized.
package reconcile
