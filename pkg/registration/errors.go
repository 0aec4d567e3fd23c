package registration

import "errors"

var (
	// ErrInvalidID is returned when the tournament ID is not a UUID.
	ErrInvalidID = errors.New("invalid tournament id")
	// ErrNotFound is returned when the tournament does not exist.
	ErrNotFound = errors.New("tournament not found")
	// ErrNotJoinable is returned when the tournament is not accepting players.
	ErrNotJoinable = errors.New("tournament is not open for registration")
	// ErrFull is returned by the capacity pre-check. Nothing was charged.
	ErrFull = errors.New("tournament is full")
	// ErrRegistrationRaceLost is returned when the last slot went to a concurrent
	// request after the fee was charged. The fee has been refunded.
	ErrRegistrationRaceLost = errors.New("tournament filled up while registering")
	// ErrPersistFailure is returned when the user was charged and holds a slot but
	// the registration record could not be written. A retry completes it.
	ErrPersistFailure = errors.New("failed to record registration")
	// ErrStoreFailure wraps unexpected store errors, including a compensating refund
	// that could not be applied. The request may be retried.
	ErrStoreFailure = errors.New("storage unavailable")
)
