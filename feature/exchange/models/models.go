package models

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidDirection is returned when a direction is neither input nor output.
	ErrInvalidDirection = errors.New("invalid exchange direction")
	// ErrInvalidRemoteState is returned when a remote folder state is not pending, done or error.
	ErrInvalidRemoteState = errors.New("invalid remote state")
	// ErrInvalidState is returned when an exchange state is not part of the enumeration.
	ErrInvalidState = errors.New("invalid exchange state")
	// ErrStateDirection is returned when a record state does not belong to the record direction.
	ErrStateDirection = errors.New("exchange state must respect direction")
	// ErrEmptyFilename is returned when a remote path is requested for a blank filename.
	ErrEmptyFilename = errors.New("empty exchange filename")
)

// Direction tells whether a file flows from the partner to us or the other way.
type Direction string

const (
	// DirectionInput is partner -> us.
	DirectionInput Direction = "input"
	// DirectionOutput is us -> partner.
	DirectionOutput Direction = "output"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionInput || d == DirectionOutput
}

// RemoteState names one of the three folders a file can sit in on the remote side.
type RemoteState string

const (
	RemotePending RemoteState = "pending"
	RemoteDone    RemoteState = "done"
	RemoteError   RemoteState = "error"
)

// Valid reports whether s is one of the known remote folders.
func (s RemoteState) Valid() bool {
	switch s {
	case RemotePending, RemoteDone, RemoteError:
		return true
	default:
		return false
	}
}

// State is the lifecycle state of an exchange record.
type State string

const (
	StateNew State = "new"

	StateOutputNotSent           State = "output_not_sent"
	StateOutputErrorOnSend       State = "output_error_on_send"
	StateOutputSent              State = "output_sent"
	StateOutputSentAndProcessed  State = "output_sent_and_processed"
	StateOutputSentAndError      State = "output_sent_and_error"
	StateInputReceived           State = "input_received"
	StateInputReadError          State = "input_read_error"
	StateInputProcessed          State = "input_processed"
	StateInputProcessedWithError State = "input_processed_error"
)

// States lists every exchange state in declaration order.
var States = []State{
	StateNew,
	StateOutputNotSent,
	StateOutputErrorOnSend,
	StateOutputSent,
	StateOutputSentAndProcessed,
	StateOutputSentAndError,
	StateInputReceived,
	StateInputReadError,
	StateInputProcessed,
	StateInputProcessedWithError,
}

// Valid reports whether s is part of the state enumeration.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Matches reports whether s may be held by a record of direction d.
// StateNew is shared by both directions.
func (s State) Matches(d Direction) bool {
	if s == StateNew {
		return true
	}
	return strings.HasPrefix(string(s), string(d))
}

// ValidateState checks that s is known and belongs to direction d.
func ValidateState(s State, d Direction) error {
	if !s.Valid() {
		return ErrInvalidState
	}
	if !d.Valid() {
		return ErrInvalidDirection
	}
	if !s.Matches(d) {
		return ErrStateDirection
	}
	return nil
}
