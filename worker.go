// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"sync/atomic"
	"time"
)

// workerKey is the context key under which a worker stores itself, so that
// a Stop issued from inside a cycle can be recognized.
type workerKey struct{}

// worker is the background goroutine of a running Updater. A worker is
// single use: once it has exited, a new one is created on the next Start.
type worker struct {
	// wake is the "run now" / "stop now" signal. Its capacity of one makes
	// repeated signals coalesce.
	wake chan struct{}

	// stop is set once a stop has been requested
	stop atomic.Bool

	// done is closed when the worker's goroutine exits
	done chan struct{}

	// ctx is handed to each cycle. It is canceled only when the worker
	// is abandoned or exits.
	ctx    context.Context
	cancel context.CancelFunc
}

func newWorker() *worker {
	w := &worker{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.ctx = context.WithValue(w.ctx, workerKey{}, w)
	return w
}

// owns tests whether the given context was produced by this worker, i.e. whether
// the caller is running inside one of this worker's cycles.
func (w *worker) owns(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	self, _ := ctx.Value(workerKey{}).(*worker)
	return self == w
}

// signal wakes the worker without blocking.
func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// reset discards any pending wake signal.
func (w *worker) reset() {
	select {
	case <-w.wake:
	default:
	}
}

// requestStop sets the stop flag and wakes the worker.
func (w *worker) requestStop() {
	w.stop.Store(true)
	w.signal()
}

// abandon cancels the context of any in-flight cycle. The goroutine will
// exit on its own once that cycle returns.
func (w *worker) abandon() {
	w.cancel()
}

// run is the worker loop. The interval is read fresh at the top of each
// iteration, so a change takes effect on the next wait rather than the current one.
func (w *worker) run(interval func() time.Duration, nt newTimer, cycle func(context.Context)) {
	defer close(w.done)
	defer w.cancel()

	for !w.stop.Load() {
		timeCh, stopTimer := nt(interval())
		select {
		case <-timeCh:

		case <-w.wake:
			stopTimer()
		}

		if w.stop.Load() {
			return
		}

		cycle(w.ctx)

		if w.stop.Load() {
			return
		}

		w.reset()
	}
}
