// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultUpdateInterval is the fallback interval for an Operation
	// when none is configured.
	DefaultUpdateInterval time.Duration = time.Minute
)

// Operation is the standard Updatable. It runs a Work body inside a critical
// section, enforces its throttle window, and dispatches Updating and Updated
// notifications.
//
// Both Update and UpdateSynchronized enter the same critical section, so at most
// one Work body runs at a time for a given Operation.
type Operation[P, R any] struct {
	work            Work[P, R]
	logger          *zap.Logger
	now             now
	newTimer        newTimer
	throttle        Throttle
	defaultInterval time.Duration

	// lock is held for the full duration of one update attempt, including
	// any throttle sleep in UpdateSynchronized.
	lock sync.Mutex

	// stateLock guards the observable state below
	stateLock   sync.RWMutex
	busy        bool
	updated     bool
	lastUpdated time.Time
	interval    time.Duration

	updatingListeners listeners[UpdatingListener[P]]
	updatedListeners  listeners[UpdatedListener[R]]
}

var _ Updatable[int, int] = (*Operation[int, int])(nil)

// NewOperation constructs an Operation around the given Work. The returned
// Operation has never been updated, so its first update is always allowed.
func NewOperation[P, R any](work Work[P, R], opts ...OperationOption) (*Operation[P, R], error) {
	if work == nil {
		return nil, fmt.Errorf("%w: work cannot be nil", ErrPrecondition)
	}

	cfg := operationConfig{
		logger:          zap.NewNop(),
		now:             time.Now,
		newTimer:        defaultNewTimer,
		throttle:        DefaultThrottle(),
		defaultInterval: DefaultUpdateInterval,
	}

	for _, o := range opts {
		if err := o.applyToOperation(&cfg); err != nil {
			return nil, err
		}
	}

	return &Operation[P, R]{
		work:            work,
		logger:          cfg.logger.Named("operation"),
		now:             cfg.now,
		newTimer:        cfg.newTimer,
		throttle:        cfg.throttle,
		defaultInterval: cfg.defaultInterval,
	}, nil
}

// Busy tests whether an update is currently inside its critical section.
func (o *Operation[P, R]) Busy() bool {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()
	return o.busy
}

// IsUpdated tests whether at least one update has succeeded.
func (o *Operation[P, R]) IsUpdated() bool {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()
	return o.updated
}

// LastUpdated returns the completion time of the most recent successful update.
// Before the first success, this is the zero time.
func (o *Operation[P, R]) LastUpdated() time.Time {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()
	return o.lastUpdated
}

// UpdateInterval returns the current interval, which is the default
// interval unless one has been set.
func (o *Operation[P, R]) UpdateInterval() time.Duration {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()
	return o.unsafeInterval()
}

func (o *Operation[P, R]) unsafeInterval() time.Duration {
	if o.interval > 0 {
		return o.interval
	}

	return o.defaultInterval
}

// SetUpdateInterval changes the interval. The change affects the next throttle
// decision. A nonpositive value reverts to the default interval.
func (o *Operation[P, R]) SetUpdateInterval(i time.Duration) {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()
	o.interval = max(0, i)
}

// DefaultUpdateInterval returns the immutable fallback interval.
func (o *Operation[P, R]) DefaultUpdateInterval() time.Duration {
	return o.defaultInterval
}

// throttleState takes a consistent snapshot for the throttle policy.
func (o *Operation[P, R]) throttleState() ThrottleState {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()

	return ThrottleState{
		Busy:        o.busy,
		Updated:     o.updated,
		LastUpdated: o.lastUpdated,
		Interval:    o.unsafeInterval(),
	}
}

// UpdateAllowed tests whether an update may start right now.
func (o *Operation[P, R]) UpdateAllowed() bool {
	return o.throttle.Allowed(o.throttleState(), o.now())
}

// AddUpdatingListener registers a listener that is invoked inside the critical
// section, before the Work body. Returning a cancel Decision aborts the update.
func (o *Operation[P, R]) AddUpdatingListener(l UpdatingListener[P]) func() {
	return o.updatingListeners.add(l)
}

// AddUpdatedListener registers a listener that is invoked after a successful
// Work body, before LastUpdated is recorded.
func (o *Operation[P, R]) AddUpdatedListener(l UpdatedListener[R]) func() {
	return o.updatedListeners.add(l)
}

// Update performs one update without waiting for the throttle window. If an
// update is not allowed right now, ErrNotAllowed is returned.
//
// This method does not sleep, but it does enter the same critical section as
// UpdateSynchronized. A concurrent synchronized update therefore delays this
// call, after which the throttle is consulted again.
func (o *Operation[P, R]) Update(ctx context.Context, p P) (r R, err error) {
	if !o.UpdateAllowed() {
		o.logger.Debug("update not allowed")
		return r, ErrNotAllowed
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if !o.UpdateAllowed() {
		o.logger.Debug("update not allowed after acquiring the lock")
		return r, ErrNotAllowed
	}

	return o.unsafeUpdate(ctx, p)
}

// UpdateSynchronized sleeps until the throttle window has elapsed and then
// performs one update. The critical section is held while sleeping.
//
// If the context is canceled while sleeping, the context's error is returned
// and no update is attempted.
func (o *Operation[P, R]) UpdateSynchronized(ctx context.Context, p P) (r R, err error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	// the interval may change while sleeping, so keep going until
	// the throttle reports no further wait
	for {
		var d time.Duration
		d, err = o.throttle.SleepDuration(o.throttleState(), o.now())
		switch {
		case err != nil:
			return

		case d <= 0:
			return o.unsafeUpdate(ctx, p)
		}

		o.logger.Debug("sleeping until the next update is allowed", zap.Duration("duration", d))
		if err = o.newTimer.sleep(ctx, d); err != nil {
			return
		}
	}
}

func (o *Operation[P, R]) setBusy(busy bool) {
	o.stateLock.Lock()
	o.busy = busy
	o.stateLock.Unlock()
}

// recordSuccess advances the throttle window. LastUpdated never moves backward.
func (o *Operation[P, R]) recordSuccess(t time.Time) {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()

	if t.After(o.lastUpdated) {
		o.lastUpdated = t
	}

	o.updated = true
}

// unsafeUpdate executes one update attempt. It must be called with o.lock held.
func (o *Operation[P, R]) unsafeUpdate(ctx context.Context, p P) (r R, err error) {
	o.setBusy(true)
	defer o.setBusy(false)

	start := o.now()
	o.logger.Debug("dispatching updating event")
	d := decide(
		o.logger,
		"updating",
		o.updatingListeners.snapshot(),
		func(l UpdatingListener[P]) Decision {
			return l.OnUpdating(UpdatingEvent[P]{
				Context:   ctx,
				Param:     p,
				Timestamp: start.UTC(),
			})
		},
	)

	if d.Cancel {
		return r, newCancelledError(ErrUpdatingCancelled, d.Reason)
	}

	result, workErr := o.invoke(ctx, p)
	if workErr != nil {
		return r, operationFailure(workErr)
	}

	end := o.now()
	o.logger.Debug("dispatching updated event", zap.Duration("duration", end.Sub(start)))
	notify(
		o.logger,
		"updated",
		o.updatedListeners.snapshot(),
		func(l UpdatedListener[R]) {
			l.OnUpdated(UpdatedEvent[R]{
				Context:   ctx,
				Result:    result,
				Timestamp: end.UTC(),
				Duration:  end.Sub(start),
			})
		},
	)

	o.recordSuccess(o.now())
	return result, nil
}

// invoke runs the Work body, converting a panic into an error.
func (o *Operation[P, R]) invoke(ctx context.Context, p P) (r R, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v}
		}
	}()

	return o.work(ctx, p)
}
