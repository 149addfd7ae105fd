// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"sync"

	"go.uber.org/zap"
)

type listenerEntry[L any] struct {
	id       uint64
	listener L
}

// listeners is an ordered, concurrency-safe set of registered listeners.
// The zero value is ready to use.
type listeners[L any] struct {
	lock    sync.Mutex
	nextID  uint64
	entries []listenerEntry[L]
}

// add appends a listener and returns a closure that removes it. The returned
// closure is idempotent.
func (ls *listeners[L]) add(l L) (remove func()) {
	ls.lock.Lock()
	defer ls.lock.Unlock()

	ls.nextID++
	id := ls.nextID
	ls.entries = append(ls.entries, listenerEntry[L]{id: id, listener: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			ls.remove(id)
		})
	}
}

func (ls *listeners[L]) remove(id uint64) {
	ls.lock.Lock()
	defer ls.lock.Unlock()

	for i, e := range ls.entries {
		if e.id == id {
			// copy-on-write, so snapshots handed out earlier are unaffected
			entries := make([]listenerEntry[L], 0, len(ls.entries)-1)
			entries = append(entries, ls.entries[:i]...)
			ls.entries = append(entries, ls.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the currently registered listeners in registration order.
func (ls *listeners[L]) snapshot() []L {
	ls.lock.Lock()
	defer ls.lock.Unlock()

	s := make([]L, len(ls.entries))
	for i, e := range ls.entries {
		s[i] = e.listener
	}

	return s
}

// count returns the number of registered listeners.
func (ls *listeners[L]) count() int {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	return len(ls.entries)
}

// decide invokes f for every listener, in order, and folds the results.
// A panicking listener is logged and treated as Continue, and never
// prevents the remaining listeners from running.
func decide[L any](logger *zap.Logger, event string, ls []L, f func(L) Decision) (d Decision) {
	for _, l := range ls {
		d = d.fold(
			guard(logger, event, func() Decision { return f(l) }),
		)
	}

	return
}

// notify invokes f for every listener, in order, isolating panics.
func notify[L any](logger *zap.Logger, event string, ls []L, f func(L)) {
	for _, l := range ls {
		guard(logger, event, func() Decision {
			f(l)
			return Continue()
		})
	}
}

// guard runs a single listener invocation, recovering any panic.
func guard(logger *zap.Logger, event string, f func() Decision) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("listener panicked",
				zap.String("event", event),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)

			d = Continue()
		}
	}()

	return f()
}
