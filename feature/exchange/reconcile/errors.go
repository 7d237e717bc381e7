package reconcile

import "errors"

var (
	// ErrNoPayload is returned when a record without a file is sent or processed.
	// It is a caller error and happens before any storage call.
	ErrNoPayload = errors.New("record has no file")
	// ErrWrongDirection is returned when an operation does not apply to the record direction.
	ErrWrongDirection = errors.New("operation does not apply to record direction")
	// ErrIllegalTransition is returned when an operation would move a record out of a state
	// that does not allow it.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrUnsaved is returned for records that were never persisted.
	ErrUnsaved = errors.New("record is not persisted")
)
