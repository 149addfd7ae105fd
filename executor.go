// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome classifies how a scheduled cycle ended.
type Outcome uint8

const (
	// OutcomeSucceeded means the Work body ran and the update was recorded.
	OutcomeSucceeded Outcome = iota

	// OutcomeCancelled means an Updating listener vetoed the update.
	OutcomeCancelled

	// OutcomeFailed means the Work body, or the parameter strategy, failed.
	OutcomeFailed

	// OutcomeAborted means the cycle's own context was canceled because the
	// Updater gave up waiting on it. A Work body that fails with a context
	// error of its own making, such as a request timeout, is OutcomeFailed.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"

	case OutcomeCancelled:
		return "cancelled"

	case OutcomeFailed:
		return "failed"

	case OutcomeAborted:
		return "aborted"

	default:
		return "unknown"
	}
}

// CycleResult describes one scheduled cycle.
type CycleResult struct {
	// ID uniquely identifies the cycle. It appears in the cycle's logs and span.
	ID string

	// Name is the name of the Updater that ran the cycle.
	Name string

	// Outcome classifies the result.
	Outcome Outcome

	// Start is when the cycle began, which precedes any throttle sleep.
	Start time.Time

	// Duration is the total time the cycle took, including any throttle sleep.
	Duration time.Duration

	// Err is the error from the cycle, if any.
	Err error
}

// CycleObserver receives the result of every scheduled cycle. Observers are
// invoked on the worker goroutine and must not block.
type CycleObserver interface {
	ObserveCycle(CycleResult)
}

// CycleObserverFunc is a closure type that implements CycleObserver.
type CycleObserverFunc func(CycleResult)

// ObserveCycle invokes this closure.
func (f CycleObserverFunc) ObserveCycle(r CycleResult) { f(r) }

// classify maps a cycle's error onto an Outcome. Only the cancellation of
// the cycle's context counts as an abort.
func classify(ctx context.Context, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded

	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled

	case ctx.Err() != nil:
		return OutcomeAborted

	default:
		return OutcomeFailed
	}
}

// param produces the parameter for a cycle, treating a panic in the
// strategy as a failed cycle.
func (u *Updater[P, R]) param(ctx context.Context) (p P, err error) {
	if u.params == nil {
		return
	}

	defer func() {
		if v := recover(); v != nil {
			err = operationFailure(&panicError{value: v})
		}
	}()

	p = u.params(ctx)
	return
}

// runCycle executes exactly one scheduled cycle on the worker goroutine. It always
// uses the synchronized entry point, and nothing it encounters escapes to the loop.
func (u *Updater[P, R]) runCycle(ctx context.Context) {
	id := uuid.NewString()
	logger := u.logger.With(zap.String("cycle", id))
	ctx, span := u.tracer.start(ctx, id)
	start := u.now()

	p, err := u.param(ctx)
	if err == nil {
		_, err = u.UpdateSynchronized(ctx, p)
	}

	result := CycleResult{
		ID:       id,
		Name:     u.name,
		Outcome:  classify(ctx, err),
		Start:    start,
		Duration: u.now().Sub(start),
		Err:      err,
	}

	switch result.Outcome {
	case OutcomeSucceeded:
		logger.Debug("update cycle succeeded", zap.Duration("duration", result.Duration))

	case OutcomeCancelled:
		reason, _ := CancelReason(err)
		logger.Warn("updating cancelled by a listener", zap.String("reason", reason))

	case OutcomeAborted:
		logger.Debug("update cycle aborted", zap.Error(err))

	default:
		logger.Error("error during updating", zap.Error(err), zap.Duration("duration", result.Duration))
	}

	u.tracer.end(span, result)
	notify(logger, "cycle", u.observers, func(o CycleObserver) {
		o.ObserveCycle(result)
	})
}
