// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"time"
)

// now is a closure used to produce the current time.
// By default, time.Now is used.
type now func() time.Time

// newTimer is a factory closure for a timer channel and the associated Stop function.
type newTimer func(time.Duration) (<-chan time.Time, func() bool)

// defaultNewTimer is the default newTimer closure used to produce
// a timer channel and stop function.
func defaultNewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// sleep blocks for the given duration or until the context is canceled,
// whichever comes first. A nonpositive duration returns immediately.
func (nt newTimer) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timeCh, stop := nt(d)
	select {
	case <-ctx.Done():
		stop()
		return ctx.Err()

	case <-timeCh:
		return nil
	}
}
