// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"fmt"
	"time"
)

const (
	// DefaultThrottleMargin is the slack applied when deciding whether an
	// update may start. It absorbs timer wake-up jitter, so that a worker
	// waking slightly early is not refused.
	DefaultThrottleMargin time.Duration = 50 * time.Millisecond
)

// ThrottleState is the subset of an operation's state that the throttle
// policy consults.
type ThrottleState struct {
	// Busy is true while an update is inside its critical section.
	Busy bool

	// Updated is true once at least one update has succeeded.
	Updated bool

	// LastUpdated is the completion time of the last successful update.
	LastUpdated time.Time

	// Interval is the minimum time between two successful updates.
	Interval time.Duration
}

// next returns the earliest time the throttle window permits another update.
func (ts ThrottleState) next() time.Time {
	return ts.LastUpdated.Add(ts.Interval)
}

// Throttle decides whether an update may start and how long to wait until it may.
// The zero value applies no margin. An Operation uses DefaultThrottle unless
// configured otherwise.
type Throttle struct {
	// Margin is added to the current time when checking the throttle window.
	Margin time.Duration
}

// DefaultThrottle returns the Throttle that applies DefaultThrottleMargin.
func DefaultThrottle() Throttle {
	return Throttle{Margin: DefaultThrottleMargin}
}

// validate checks that this Throttle is usable.
func (t Throttle) validate() error {
	if t.Margin < 0 {
		return fmt.Errorf("%w: negative throttle margin %s", ErrPrecondition, t.Margin)
	}

	return nil
}

// Allowed tests whether an update may start at the given time. An update is never
// allowed while another one is busy. Being refused is not an error.
func (t Throttle) Allowed(s ThrottleState, now time.Time) bool {
	switch {
	case s.Busy:
		return false

	case !s.Updated:
		return true

	default:
		return now.Add(t.Margin).After(s.next())
	}
}

// SleepDuration computes how long a caller must wait before the throttle window
// has elapsed. It returns zero if the operation has never been updated.
//
// Asking for a sleep duration while the operation is busy is a programming error,
// and this method returns ErrPrecondition in that case.
func (t Throttle) SleepDuration(s ThrottleState, now time.Time) (time.Duration, error) {
	switch {
	case s.Busy:
		return 0, fmt.Errorf("%w: cannot sleep while the operation is busy", ErrPrecondition)

	case !s.Updated:
		return 0, nil

	default:
		return max(0, s.next().Sub(now)), nil
	}
}
