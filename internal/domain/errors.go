package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange slot range is unbounded, inverted, too long or has a bad granularity
	ErrInvalidRange = errors.New("domain: invalid time range")

	// ErrInvalidInput request values are out of bounds (party size, empty ids)
	ErrInvalidInput = errors.New("domain: invalid input")

	// ErrCapacityExceeded not enough seats left; use errors.As with *CapacityExceededError for details
	ErrCapacityExceeded = errors.New("domain: capacity exceeded")

	// ErrConflict concurrent write conflict that survived the automatic retry
	ErrConflict = errors.New("domain: concurrent write conflict")

	// ErrNotFound restaurant or reservation does not exist
	ErrNotFound = errors.New("domain: not found")

	// ErrUnparseableInput the NLP backend could not process the utterance
	ErrUnparseableInput = errors.New("domain: unparseable input")

	// ErrTimeout a store or NLP call ran past its deadline; safe to retry
	ErrTimeout = errors.New("domain: operation timed out")

	// ErrHoldExpired the pending hold lapsed before it was confirmed
	ErrHoldExpired = errors.New("domain: hold expired")

	// ErrInvalidTransition the reservation is not in a state that allows the operation
	ErrInvalidTransition = errors.New("domain: invalid status transition")
)

// CapacityExceededError carries how many seats were still free when a commit was refused
type CapacityExceededError struct {
	RestaurantID string
	Slot         TimeSlot
	Requested    int
	Remaining    int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%v: restaurant %s at %s requested %d, remaining %d",
		ErrCapacityExceeded, e.RestaurantID, e.Slot.Start.Format("2006-01-02 15:04"), e.Requested, e.Remaining)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// IsRetryable returns true for errors the caller may simply retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConflict)
}
