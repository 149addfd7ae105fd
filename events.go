// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"time"
)

// Decision is what a listener returns from a cancellable notification.
// The zero value continues.
type Decision struct {
	// Cancel indicates that the listener vetoes the operation.
	Cancel bool

	// Reason is an optional explanation for the veto.
	Reason string
}

// Continue is the Decision that lets an operation proceed.
func Continue() Decision {
	return Decision{}
}

// Cancel is the Decision that vetoes an operation with the given reason.
func Cancel(reason string) Decision {
	return Decision{
		Cancel: true,
		Reason: reason,
	}
}

// fold merges a subsequent listener's decision into this one. Any cancel wins,
// and the first non-empty reason among the cancelling listeners is kept.
func (d Decision) fold(next Decision) Decision {
	if !next.Cancel {
		return d
	}

	if !d.Cancel || len(d.Reason) == 0 {
		d.Reason = next.Reason
	}

	d.Cancel = true
	return d
}

//go:generate stringer -type=LifecycleEventType -linecomment

// LifecycleEventType identifies a transition in an Updater's lifecycle.
type LifecycleEventType uint8

const (
	// EventStarting is dispatched before an Updater starts. Listeners may cancel.
	EventStarting LifecycleEventType = iota // starting

	// EventStartingCanceled is dispatched when a Starting listener cancelled.
	EventStartingCanceled // startingCanceled

	// EventStarted is dispatched once the worker is running.
	EventStarted // started

	// EventStopping is dispatched before a non-teardown stop. Listeners may cancel.
	EventStopping // stopping

	// EventStopped is dispatched once a non-teardown stop has completed.
	EventStopped // stopped
)

// Cancellable tests whether listeners may veto this type of event.
func (t LifecycleEventType) Cancellable() bool {
	return t == EventStarting || t == EventStopping
}

// MarshalText produces the string value of this event type.
func (t LifecycleEventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// LifecycleEvent describes a start or stop transition of an Updater.
type LifecycleEvent struct {
	// Type is the kind of transition.
	Type LifecycleEventType

	// Reason is the cancellation reason for EventStartingCanceled. It is
	// empty for all other types.
	Reason string

	// Timestamp is when the event was dispatched, in UTC.
	Timestamp time.Time

	// State is a snapshot of the Updater when the event was dispatched.
	State UpdaterState
}

// LifecycleListener is a sink for LifecycleEvents.
type LifecycleListener interface {
	// OnLifecycleEvent receives a LifecycleEvent. The returned Decision is only
	// consulted for cancellable event types. This method must not block, and
	// must not call Start or Stop on the dispatching Updater.
	OnLifecycleEvent(LifecycleEvent) Decision
}

// LifecycleListenerFunc is a closure type that implements LifecycleListener.
type LifecycleListenerFunc func(LifecycleEvent) Decision

// OnLifecycleEvent invokes this closure.
func (f LifecycleListenerFunc) OnLifecycleEvent(e LifecycleEvent) Decision { return f(e) }

// UpdatingEvent is dispatched before an update's Work body runs.
type UpdatingEvent[P any] struct {
	// Context is the context the update was invoked with. A listener that
	// stops the Updater from within a scheduled cycle passes it to Stop.
	Context context.Context

	// Param is the parameter the update was invoked with.
	Param P

	// Timestamp is when the update entered its critical section, in UTC.
	Timestamp time.Time
}

// UpdatingListener is a sink for UpdatingEvents. Every registered listener
// is invoked, even after one has cancelled.
type UpdatingListener[P any] interface {
	OnUpdating(UpdatingEvent[P]) Decision
}

// UpdatingListenerFunc is a closure type that implements UpdatingListener.
type UpdatingListenerFunc[P any] func(UpdatingEvent[P]) Decision

// OnUpdating invokes this closure.
func (f UpdatingListenerFunc[P]) OnUpdating(e UpdatingEvent[P]) Decision { return f(e) }

// UpdatedEvent is dispatched after an update's Work body succeeds.
type UpdatedEvent[R any] struct {
	// Context is the context the update was invoked with. A listener that
	// stops the Updater from within a scheduled cycle passes it to Stop.
	Context context.Context

	// Result is what the Work body returned.
	Result R

	// Timestamp is when the Work body completed, in UTC.
	Timestamp time.Time

	// Duration is how long the Work body took.
	Duration time.Duration
}

// UpdatedListener is a sink for UpdatedEvents.
type UpdatedListener[R any] interface {
	OnUpdated(UpdatedEvent[R])
}

// UpdatedListenerFunc is a closure type that implements UpdatedListener.
type UpdatedListenerFunc[R any] func(UpdatedEvent[R])

// OnUpdated invokes this closure.
func (f UpdatedListenerFunc[R]) OnUpdated(e UpdatedEvent[R]) { f(e) }
