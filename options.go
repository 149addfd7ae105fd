// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// operationConfig is the non-generic configuration shared by every Operation.
type operationConfig struct {
	logger          *zap.Logger
	now             now
	newTimer        newTimer
	throttle        Throttle
	defaultInterval time.Duration
}

// updaterConfig is the non-generic configuration shared by every Updater.
type updaterConfig struct {
	logger      *zap.Logger
	now         now
	newTimer    newTimer
	stopTimeout time.Duration
	name        string
	metadata    Metadata
	observers   []CycleObserver
	tracer      trace.Tracer
	listeners   []LifecycleListener

	// params holds a ParamFunc[P], which is type checked against
	// the Updater's parameter type at construction.
	params any
}

// OperationOption is a configurable option for tailoring an Operation.
type OperationOption interface {
	applyToOperation(*operationConfig) error
}

type operationOptionFunc func(*operationConfig) error

func (f operationOptionFunc) applyToOperation(c *operationConfig) error { return f(c) }

// UpdaterOption is a configurable option for tailoring an Updater.
type UpdaterOption interface {
	applyToUpdater(*updaterConfig) error
}

type updaterOptionFunc func(*updaterConfig) error

func (f updaterOptionFunc) applyToUpdater(c *updaterConfig) error { return f(c) }

// Option is an option that applies to both Operations and Updaters.
type Option interface {
	OperationOption
	UpdaterOption
}

type loggerOption struct {
	logger *zap.Logger
}

func (lo loggerOption) applyToOperation(c *operationConfig) error {
	c.logger = lo.logger
	return nil
}

func (lo loggerOption) applyToUpdater(c *updaterConfig) error {
	c.logger = lo.logger
	return nil
}

// WithLogger sets the zap logger used for diagnostics. If unset or nil,
// nothing is logged.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		l = zap.NewNop()
	}

	return loggerOption{logger: l}
}

// WithDefaultUpdateInterval sets the immutable fallback interval for an Operation.
// If unset, DefaultUpdateInterval is used. A nonpositive interval is an error.
func WithDefaultUpdateInterval(i time.Duration) OperationOption {
	return operationOptionFunc(func(c *operationConfig) error {
		if i <= 0 {
			return fmt.Errorf("%w: default update interval must be positive, got %s", ErrPrecondition, i)
		}

		c.defaultInterval = i
		return nil
	})
}

// WithThrottleMargin sets the safety margin applied by an Operation's throttle.
// If unset, DefaultThrottleMargin is used. A zero margin disables the slack entirely,
// and a negative margin is an error.
func WithThrottleMargin(m time.Duration) OperationOption {
	return operationOptionFunc(func(c *operationConfig) error {
		c.throttle = Throttle{Margin: m}
		return c.throttle.validate()
	})
}

// WithStopTimeout sets how long Stop waits for the worker to finish its current
// cycle. If unset, DefaultStopTimeout is used. A nonpositive timeout is an error.
func WithStopTimeout(d time.Duration) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		if d <= 0 {
			return fmt.Errorf("%w: stop timeout must be positive, got %s", ErrPrecondition, d)
		}

		c.stopTimeout = d
		return nil
	})
}

// ParamFunc supplies the parameter for each scheduled cycle.
type ParamFunc[P any] func(context.Context) P

// WithParams sets the strategy for producing the parameter of each scheduled
// cycle. By default, the zero value of P is used. The type P must match the
// Updater's parameter type, or NewUpdater returns an error.
func WithParams[P any](f ParamFunc[P]) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		c.params = f
		return nil
	})
}

// WithName sets the name of an Updater, which is included in its logs,
// state, and metrics.
func WithName(n string) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		c.name = n
		return nil
	})
}

// WithMetadata associates client-specific name/value pairs with an Updater.
func WithMetadata(m Metadata) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		c.metadata = m
		return nil
	})
}

// WithCycleObserver adds observers that receive the outcome of every
// scheduled cycle. Nil observers are skipped.
func WithCycleObserver(obs ...CycleObserver) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		for _, o := range obs {
			if o != nil {
				c.observers = append(c.observers, o)
			}
		}

		return nil
	})
}

// WithTracer sets the tracer used to create a span for every scheduled cycle.
// If unset or nil, a no-op tracer is used.
func WithTracer(t trace.Tracer) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		c.tracer = t
		return nil
	})
}

// WithListeners registers lifecycle listeners at construction time.
// Nil listeners are skipped.
func WithListeners(ls ...LifecycleListener) UpdaterOption {
	return updaterOptionFunc(func(c *updaterConfig) error {
		for _, l := range ls {
			if l != nil {
				c.listeners = append(c.listeners, l)
			}
		}

		return nil
	})
}
