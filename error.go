// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAllowed is returned by a direct Update when the throttle window
	// has not yet elapsed or another update is in progress. Callers should
	// retry later or use UpdateSynchronized, which waits instead.
	ErrNotAllowed = errors.New("update is not allowed")

	// ErrCancelled indicates that a listener vetoed an operation. Every
	// CancelledError matches this error via errors.Is.
	ErrCancelled = errors.New("cancelled")

	// ErrOperationFailure wraps any error or panic raised by a Work body.
	ErrOperationFailure = errors.New("update operation failed")

	// ErrPrecondition indicates a programming error or an invalid configuration.
	ErrPrecondition = errors.New("precondition violation")

	// ErrStopTimeout is returned by Updater.Stop when the worker did not exit
	// within the stop timeout. The worker is abandoned and the Updater is
	// stopped regardless. An abandoned cycle may leave its Operation busy
	// until the Work body returns.
	ErrStopTimeout = errors.New("timed out waiting for the worker to stop")

	// ErrRunning is returned by Updater.Start when the Updater is already running.
	ErrRunning = errors.New("the updater is already running")

	// ErrNotRunning is returned by Updater.Stop when the Updater is not running.
	ErrNotRunning = errors.New("the updater is not running")

	// ErrStartCancelled is matched by the CancelledError returned from Updater.Start
	// when a Starting listener cancels.
	ErrStartCancelled = errors.New("starting was cancelled")

	// ErrStopCancelled is matched by the CancelledError returned from Updater.Stop
	// when a Stopping listener cancels.
	ErrStopCancelled = errors.New("stopping was cancelled")

	// ErrUpdatingCancelled is matched by the CancelledError returned from an update
	// when an Updating listener cancels.
	ErrUpdatingCancelled = errors.New("updating was cancelled")
)

// CancelledError is returned when a listener vetoes a cancellable notification.
type CancelledError struct {
	// Reason is the reason supplied by the cancelling listener. It may be empty.
	Reason string

	err error
}

func (ce *CancelledError) Error() string {
	if len(ce.Reason) == 0 {
		return ce.err.Error()
	}

	return fmt.Sprintf("%s: %s", ce.err, ce.Reason)
}

// Unwrap exposes both ErrCancelled and the specific sentinel for what was cancelled.
func (ce *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, ce.err}
}

// newCancelledError creates a CancelledError for the given sentinel.
func newCancelledError(err error, reason string) *CancelledError {
	return &CancelledError{
		Reason: reason,
		err:    err,
	}
}

// CancelReason examines an error to determine the reason a listener gave for
// cancelling. If err is not, and does not wrap, a CancelledError this function
// returns ("", false).
func CancelReason(err error) (reason string, cancelled bool) {
	var ce *CancelledError
	if errors.As(err, &ce) {
		reason, cancelled = ce.Reason, true
	}

	return
}

// operationFailure wraps an error from a Work body so that it matches
// both ErrOperationFailure and the original cause.
func operationFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrOperationFailure, cause)
}

// panicError is the cause recorded when a Work body panics.
type panicError struct {
	value any
}

func (pe *panicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.value)
}

// Unwrap exposes the panic value if it was itself an error.
func (pe *panicError) Unwrap() error {
	err, _ := pe.value.(error)
	return err
}
