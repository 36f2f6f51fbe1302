package coinflip

import (
	"coinflip/backend/internal/models"
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("room not found")
	ErrInvalidState  = errors.New("invalid room state")
	ErrValueMismatch = errors.New("value mismatch")
)

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidStateError reports an operation attempted in the wrong lifecycle state.
// Callers should refresh the room before trying again.
type InvalidStateError struct {
	RoomID   string
	Status   models.RoomStatus
	Expected models.RoomStatus
}

func (e *InvalidStateError) Error() string {
	switch e.Expected {
	case models.RoomStatusOpen:
		return "Room not open"
	case models.RoomStatusMatched:
		return "Room not ready to flip"
	}
	return fmt.Sprintf("room is %s, expected %s", e.Status, e.Expected)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ValueMismatchError carries the accepted range so the client can adjust its stake.
type ValueMismatchError struct {
	Min float64
	Max float64
}

func (e *ValueMismatchError) Error() string {
	return fmt.Sprintf("%s: expected between %g and %g", ErrValueMismatch, e.Min, e.Max)
}

func (e *ValueMismatchError) Unwrap() error { return ErrValueMismatch }

var (
	errMalformedStake = &ValidationError{Reason: "items[] and totalValue required"}
	errOwnRoom        = &ValidationError{Reason: "Cannot join your own room"}
	errNoIdentity     = &ValidationError{Reason: "caller identity required"}
)
