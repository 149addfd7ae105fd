// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"time"
)

// Updatable is the capability an Updater drives. Operation is the
// implementation supplied by this package, but any type that honors
// these semantics may be used.
type Updatable[P, R any] interface {
	// Update performs one update immediately. If the throttle window has not
	// elapsed or another update is busy, this method returns ErrNotAllowed
	// without waiting.
	Update(context.Context, P) (R, error)

	// UpdateSynchronized waits until the throttle window allows an update and
	// then performs it. Waiting is interrupted if the context is canceled.
	UpdateSynchronized(context.Context, P) (R, error)

	// Busy tests whether an update is currently inside its critical section.
	Busy() bool

	// IsUpdated tests whether at least one update has succeeded.
	IsUpdated() bool

	// LastUpdated is the completion time of the most recent successful update,
	// or the zero time if there has been none.
	LastUpdated() time.Time

	// UpdateInterval is the minimum time between successful updates.
	UpdateInterval() time.Duration

	// SetUpdateInterval changes the interval. A nonpositive value reverts
	// to DefaultUpdateInterval.
	SetUpdateInterval(time.Duration)

	// DefaultUpdateInterval is the immutable fallback interval.
	DefaultUpdateInterval() time.Duration

	// UpdateAllowed tests whether Update would be allowed to proceed right now.
	UpdateAllowed() bool

	// AddUpdatingListener registers a listener invoked before each update's work.
	// The returned closure removes the listener.
	AddUpdatingListener(UpdatingListener[P]) func()

	// AddUpdatedListener registers a listener invoked after each successful update.
	// The returned closure removes the listener.
	AddUpdatedListener(UpdatedListener[R]) func()
}
