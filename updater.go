// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultStopTimeout is how long Stop waits for the worker to finish
	// its current cycle when no timeout is configured.
	DefaultStopTimeout time.Duration = 10 * time.Second
)

// UpdaterState holds a snapshot of the state of an Updater.
type UpdaterState struct {
	// Name is the configured name of the Updater, if any.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Running indicates whether the Updater has been started and not yet stopped.
	Running bool `json:"running" yaml:"running"`

	// Locked indicates whether a synchronized update is in progress
	// through the Updater.
	Locked bool `json:"locked" yaml:"locked"`

	// Phase is the lifecycle phase of the Updater's worker.
	Phase Phase `json:"phase" yaml:"phase"`

	// Interval is the current update interval.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Updated indicates whether at least one update has succeeded.
	Updated bool `json:"updated" yaml:"updated"`

	// LastUpdate is the completion time of the last successful update. This
	// is the zero time if there has been none.
	LastUpdate time.Time `json:"lastUpdate" yaml:"lastUpdate"`

	// Metadata is the optional set of name/value pairs configured for the Updater.
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// Updater runs an Updatable on a background goroutine at the Updatable's
// interval. Each scheduled cycle goes through UpdateSynchronized, and errors
// from a cycle are logged rather than stopping the Updater.
//
// Start and Stop are intended to be called from a single controlling goroutine.
// The exception is a Stop issued from inside a cycle, using the context passed to
// the Work body, which stops the Updater without waiting on itself.
type Updater[P, R any] struct {
	op          Updatable[P, R]
	logger      *zap.Logger
	now         now
	newTimer    newTimer
	stopTimeout time.Duration
	name        string
	metadata    Metadata
	params      ParamFunc[P]
	observers   []CycleObserver
	tracer      cycleTracer

	listeners listeners[LifecycleListener]

	// syncLock serializes synchronized updates made through this Updater
	syncLock sync.Mutex

	// locked counts synchronized updates in flight through this Updater
	locked atomic.Int32

	running atomic.Bool
	phase   atomic.Uint32

	// lock guards w
	lock sync.Mutex
	w    *worker
}

// NewUpdater constructs an Updater for the given Updatable. The returned
// Updater is not running.
func NewUpdater[P, R any](op Updatable[P, R], opts ...UpdaterOption) (*Updater[P, R], error) {
	if op == nil {
		return nil, fmt.Errorf("%w: the updatable cannot be nil", ErrPrecondition)
	}

	cfg := updaterConfig{
		logger:      zap.NewNop(),
		now:         time.Now,
		newTimer:    defaultNewTimer,
		stopTimeout: DefaultStopTimeout,
	}

	for _, o := range opts {
		if err := o.applyToUpdater(&cfg); err != nil {
			return nil, err
		}
	}

	u := &Updater[P, R]{
		op:          op,
		now:         cfg.now,
		newTimer:    cfg.newTimer,
		stopTimeout: cfg.stopTimeout,
		name:        cfg.name,
		metadata:    cfg.metadata,
		observers:   cfg.observers,
		tracer:      newCycleTracer(cfg.tracer, cfg.name),
	}

	if cfg.params != nil {
		pf, ok := cfg.params.(ParamFunc[P])
		if !ok {
			return nil, fmt.Errorf("%w: parameter strategy of type %T does not produce %T", ErrPrecondition, cfg.params, *new(P))
		}

		u.params = pf
	}

	u.logger = cfg.logger.Named("refresher")
	if len(u.name) > 0 {
		u.logger = u.logger.With(zap.String("name", u.name))
	}

	if u.metadata.Len() > 0 {
		u.logger = u.logger.With(zap.Object("metadata", u.metadata))
	}

	for _, l := range cfg.listeners {
		u.listeners.add(l)
	}

	u.phase.Store(uint32(PhaseNotStarted))
	return u, nil
}

// Operation returns the Updatable this Updater drives.
func (u *Updater[P, R]) Operation() Updatable[P, R] {
	return u.op
}

// Name returns the configured name of this Updater.
func (u *Updater[P, R]) Name() string {
	return u.name
}

// IsRunning tests whether this Updater has been started and not yet stopped.
func (u *Updater[P, R]) IsRunning() bool {
	return u.running.Load()
}

// Locked tests whether a synchronized update is in progress through this Updater.
func (u *Updater[P, R]) Locked() bool {
	return u.locked.Load() > 0
}

// Phase returns the lifecycle phase of this Updater's worker.
func (u *Updater[P, R]) Phase() Phase {
	return Phase(u.phase.Load())
}

// Interval returns the Updatable's current interval.
func (u *Updater[P, R]) Interval() time.Duration {
	return u.op.UpdateInterval()
}

// SetInterval changes the Updatable's interval. A running worker picks up the
// change on its next wait.
func (u *Updater[P, R]) SetInterval(i time.Duration) {
	u.op.SetUpdateInterval(i)
}

// LastUpdateTime returns the completion time of the Updatable's last successful update.
func (u *Updater[P, R]) LastUpdateTime() time.Time {
	return u.op.LastUpdated()
}

// State returns a snapshot of this Updater.
func (u *Updater[P, R]) State() UpdaterState {
	return UpdaterState{
		Name:       u.name,
		Running:    u.IsRunning(),
		Locked:     u.Locked(),
		Phase:      u.Phase(),
		Interval:   u.op.UpdateInterval(),
		Updated:    u.op.IsUpdated(),
		LastUpdate: u.op.LastUpdated(),
		Metadata:   u.metadata,
	}
}

// AddListener registers a lifecycle listener. Listeners are invoked in
// registration order. The returned closure removes the listener.
func (u *Updater[P, R]) AddListener(l LifecycleListener) func() {
	return u.listeners.add(l)
}

// AddUpdatingListener registers an Updating listener on the underlying Updatable.
func (u *Updater[P, R]) AddUpdatingListener(l UpdatingListener[P]) func() {
	return u.op.AddUpdatingListener(l)
}

// AddUpdatedListener registers an Updated listener on the underlying Updatable.
func (u *Updater[P, R]) AddUpdatedListener(l UpdatedListener[R]) func() {
	return u.op.AddUpdatedListener(l)
}

// Update performs a direct update on the Updatable. This bypasses both the
// throttle wait and this Updater's serialization, and does not affect Locked.
// Callers that need to cooperate with scheduled cycles should use UpdateSynchronized.
func (u *Updater[P, R]) Update(ctx context.Context, p P) (R, error) {
	return u.op.Update(ctx, p)
}

// UpdateSynchronized performs a throttled update, serialized with the scheduled
// cycles of this Updater. Locked reports true while this method is in progress.
func (u *Updater[P, R]) UpdateSynchronized(ctx context.Context, p P) (R, error) {
	u.locked.Add(1)
	defer u.locked.Add(-1)

	u.syncLock.Lock()
	defer u.syncLock.Unlock()

	return u.op.UpdateSynchronized(ctx, p)
}

// dispatch sends a lifecycle event to all listeners. For event types that are
// not cancellable, the listeners' decisions are ignored.
func (u *Updater[P, R]) dispatch(t LifecycleEventType, reason string) Decision {
	e := LifecycleEvent{
		Type:      t,
		Reason:    reason,
		Timestamp: u.now().UTC(),
		State:     u.State(),
	}

	u.logger.Debug("dispatching lifecycle event", zap.Stringer("event", t))
	d := decide(
		u.logger,
		t.String(),
		u.listeners.snapshot(),
		func(l LifecycleListener) Decision {
			return l.OnLifecycleEvent(e)
		},
	)

	if !t.Cancellable() {
		return Continue()
	}

	return d
}

// Start launches the background worker and schedules an immediate first cycle.
//
// If this Updater is already running, this method does nothing and returns
// ErrRunning. If a Starting listener cancels, EventStartingCanceled is dispatched
// and a CancelledError matching ErrStartCancelled is returned.
func (u *Updater[P, R]) Start() error {
	if u.running.Load() {
		u.logger.Warn("start called on a running updater, doing nothing")
		return ErrRunning
	}

	u.logger.Info("starting")
	if d := u.dispatch(EventStarting, ""); d.Cancel {
		u.logger.Warn("starting was cancelled by a listener", zap.String("reason", d.Reason))
		u.dispatch(EventStartingCanceled, d.Reason)
		return newCancelledError(ErrStartCancelled, d.Reason)
	}

	w := newWorker()
	u.lock.Lock()
	u.w = w
	u.lock.Unlock()

	go w.run(u.op.UpdateInterval, u.newTimer, u.runCycle)

	u.running.Store(true)
	u.phase.Store(uint32(PhaseRunning))
	w.signal()

	u.dispatch(EventStarted, "")
	u.logger.Info("started")
	return nil
}

// Trigger wakes a running worker so that a cycle runs immediately, subject to
// the throttle. If this Updater is not running, this method does nothing.
func (u *Updater[P, R]) Trigger() {
	u.lock.Lock()
	w := u.w
	u.lock.Unlock()

	if w != nil && u.running.Load() {
		w.signal()
	}
}

// Stop halts the background worker. A cycle already in progress is not interrupted:
// this method waits for it up to the stop timeout or until ctx is canceled, whichever
// comes first. If the wait gives up, the worker's context is canceled, the worker is
// abandoned, and ErrStopTimeout is returned after the Updater has been marked stopped.
//
// When called with the context given to a cycle's Work body, or the Context of an
// UpdatingEvent or UpdatedEvent dispatched by that cycle, Stop does not wait on the
// worker, which exits after that cycle returns.
//
// If this Updater is not running, this method does nothing and returns ErrNotRunning.
// If a Stopping listener cancels, the worker keeps running and a CancelledError
// matching ErrStopCancelled is returned.
func (u *Updater[P, R]) Stop(ctx context.Context) error {
	return u.stop(ctx, false)
}

// Close tears down this Updater. It stops the worker without dispatching
// Stopping or Stopped events and never returns an error.
func (u *Updater[P, R]) Close() error {
	if err := u.stop(context.Background(), true); err != nil {
		u.logger.Debug("ignoring error from teardown", zap.Error(err))
	}

	return nil
}

func (u *Updater[P, R]) stop(ctx context.Context, teardown bool) (err error) {
	if !u.running.Load() {
		if !teardown {
			u.logger.Warn("stop called on an updater that is not running, doing nothing")
		}

		return ErrNotRunning
	}

	u.logger.Info("stopping", zap.Bool("teardown", teardown))
	if !teardown {
		if d := u.dispatch(EventStopping, ""); d.Cancel {
			u.logger.Warn("stopping was cancelled by a listener", zap.String("reason", d.Reason))
			return newCancelledError(ErrStopCancelled, d.Reason)
		}
	}

	u.lock.Lock()
	w := u.w
	u.w = nil
	u.lock.Unlock()

	u.phase.Store(uint32(PhaseStopRequested))
	if w != nil {
		w.requestStop()
		if w.owns(ctx) {
			u.logger.Debug("stop requested from within a cycle, not waiting on the worker")
		} else {
			err = u.join(ctx, w)
		}
	}

	u.phase.Store(uint32(PhaseStopped))
	if !teardown {
		u.dispatch(EventStopped, "")
	}

	u.running.Store(false)
	u.logger.Info("stopped")
	return
}

// join waits for the worker to exit, bounded by the stop timeout and the context.
func (u *Updater[P, R]) join(ctx context.Context, w *worker) error {
	if ctx == nil {
		ctx = context.Background()
	}

	u.logger.Debug("waiting for the worker to exit")
	timeCh, stopTimer := u.newTimer(u.stopTimeout)
	defer stopTimer()

	var cause error
	select {
	case <-w.done:
		return nil

	case <-timeCh:
		cause = fmt.Errorf("%w after %s", ErrStopTimeout, u.stopTimeout)

	case <-ctx.Done():
		cause = fmt.Errorf("%w: %w", ErrStopTimeout, ctx.Err())
	}

	w.abandon()
	u.logger.Warn("the worker did not exit in time and has been abandoned",
		zap.Duration("timeout", u.stopTimeout),
		zap.Bool("busy", u.op.Busy()),
		zap.Error(cause),
	)

	return cause
}
