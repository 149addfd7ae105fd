// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"reflect"
)

// Work is the body of an update. It receives the context of the invoking
// goroutine and the update's parameter. For scheduled cycles, the context
// is canceled only if the Updater gives up waiting for the cycle to finish.
type Work[P, R any] func(context.Context, P) (R, error)

// WorkFunc describes the various closure types that are convertible to Work.
// Calling code can convert any closure that satisfies this type via AsWork.
type WorkFunc[P, R any] interface {
	~func() error |
		~func(context.Context) error |
		~func() (R, error) |
		~func(context.Context) (R, error) |
		~func(P) (R, error) |
		~func(context.Context, P) (R, error)
}

// AsWork converts a closure into a Work. This allows client code to use
// simpler closures that have no dependency on this package. Closures that
// return only an error produce the zero value of R.
func AsWork[P, R any, F WorkFunc[P, R]](f F) Work[P, R] {
	var (
		fv = reflect.ValueOf(f)

		workExact             = reflect.TypeOf((func(context.Context, P) (R, error))(nil))
		workReturnError       = reflect.TypeOf((func() error)(nil))
		workContextReturnErr  = reflect.TypeOf((func(context.Context) error)(nil))
		workReturnResult      = reflect.TypeOf((func() (R, error))(nil))
		workContextReturnRes  = reflect.TypeOf((func(context.Context) (R, error))(nil))
		workParamReturnResult = reflect.TypeOf((func(P) (R, error))(nil))
	)

	switch {
	case fv.CanConvert(workExact):
		return fv.Convert(workExact).Interface().(func(context.Context, P) (R, error))

	case fv.CanConvert(workReturnError):
		wf := fv.Convert(workReturnError).Interface().(func() error)
		return func(_ context.Context, _ P) (r R, err error) {
			err = wf()
			return
		}

	case fv.CanConvert(workContextReturnErr):
		wf := fv.Convert(workContextReturnErr).Interface().(func(context.Context) error)
		return func(ctx context.Context, _ P) (r R, err error) {
			err = wf(ctx)
			return
		}

	case fv.CanConvert(workReturnResult):
		wf := fv.Convert(workReturnResult).Interface().(func() (R, error))
		return func(_ context.Context, _ P) (R, error) {
			return wf()
		}

	case fv.CanConvert(workContextReturnRes):
		wf := fv.Convert(workContextReturnRes).Interface().(func(context.Context) (R, error))
		return func(ctx context.Context, _ P) (R, error) {
			return wf(ctx)
		}

	default: // func(P) (R, error)
		wf := fv.Convert(workParamReturnResult).Interface().(func(P) (R, error))
		return func(_ context.Context, p P) (R, error) {
			return wf(p)
		}
	}
}
