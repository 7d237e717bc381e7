// Package store persists exchange backends, types, records and messages.
//
// Gorm is the production repository (MySQL or SQLite). Memory keeps everything in process
// and backs tests and one-shot tooling.
//
// Records are written with optimistic concurrency: SaveRecord only succeeds when the stored
// Version still matches the one the caller loaded, and returns ErrStale otherwise. Together
// with the per-record lock of the reconciliation engine this keeps a transition from being
// applied twice.
package store
