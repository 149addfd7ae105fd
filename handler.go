// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// StateSource is anything that can report an UpdaterState. *Updater
// implements this interface.
type StateSource interface {
	State() UpdaterState
}

// StateResponseCoder is a strategy for turning an UpdaterState into an HTTP response code.
type StateResponseCoder func(UpdaterState) int

// DefaultStateResponseCoder is the default StateResponseCoder used when no
// strategy is supplied.
//
// This function returns a 200 for a running Updater that has updated at least once,
// a 429 for a running Updater that has not yet updated (consul's warning convention),
// and a 503 for an Updater that is not running.
func DefaultStateResponseCoder(s UpdaterState) int {
	switch {
	case s.Running && s.Updated:
		return http.StatusOK

	case s.Running:
		return http.StatusTooManyRequests

	default:
		return http.StatusServiceUnavailable
	}
}

// Errorer is a callback that receives errors the Handler encounters while
// trying to write responses. By default, such errors are dropped.
type Errorer func(error)

// HandlerOption is a configurable option for customizing a state Handler.
type HandlerOption interface {
	apply(*Handler) error
}

type handlerOptionFunc func(*Handler) error

func (f handlerOptionFunc) apply(h *Handler) error { return f(h) }

// WithStateResponseCoder sets a custom strategy for determining the HTTP response code
// for a given UpdaterState.
//
// If this option isn't used or is set to nil, DefaultStateResponseCoder is used.
func WithStateResponseCoder(f StateResponseCoder) HandlerOption {
	return handlerOptionFunc(func(h *Handler) error {
		h.coder = f
		return nil
	})
}

// WithErrorer configures an error callback for the Handler. There is
// no default for this option. If unspecified, errors are dropped.
func WithErrorer(errorer Errorer) HandlerOption {
	return handlerOptionFunc(func(h *Handler) error {
		h.errorer = errorer
		return nil
	})
}

// content holds a rendered response.
type content struct {
	responseCode  int
	contentType   string
	contentLength string

	// lastModified is the Last-Modified header value, or empty if the
	// Updater has never updated.
	lastModified string

	body []byte
}

// writeTo writes this rendered content to the given response.
func (c content) writeTo(response http.ResponseWriter) (err error) {
	rh := response.Header()
	rh.Set("Content-Type", c.contentType)
	rh.Set("Content-Length", c.contentLength)
	if len(c.lastModified) > 0 {
		rh.Set("Last-Modified", c.lastModified)
	}

	response.WriteHeader(c.responseCode)
	_, err = response.Write(c.body)
	return
}

// Handler is an HTTP handler that exposes the state of an Updater as JSON.
type Handler struct {
	source  StateSource
	coder   StateResponseCoder
	errorer Errorer
}

// NewHandler constructs a new state Handler for the given source using the
// supplied set of options.
func NewHandler(source StateSource, opts ...HandlerOption) (*Handler, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: the state source cannot be nil", ErrPrecondition)
	}

	h := &Handler{
		source: source,
	}

	for _, o := range opts {
		if err := o.apply(h); err != nil {
			return nil, err
		}
	}

	if h.coder == nil {
		h.coder = DefaultStateResponseCoder
	}

	return h, nil
}

// ServeHTTP returns an HTTP response that represents the current state of the source.
func (h *Handler) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	// force clients to always revalidate and fetch the current value
	response.Header().Set("Cache-Control", "no-cache")

	err := h.render(h.source.State()).writeTo(response)
	if err != nil && h.errorer != nil {
		h.errorer(err)
	}
}

// stateJSON is the wire form of an UpdaterState.
type stateJSON struct {
	UpdaterState
	Interval string `json:"interval"`
}

// render produces the response for the given state. Marshaling errors are
// rendered as a plaintext 500.
func (h *Handler) render(s UpdaterState) content {
	var lastModified string
	if s.Updated {
		lastModified = s.LastUpdate.UTC().Format(http.TimeFormat)
	}

	body, err := json.Marshal(stateJSON{
		UpdaterState: s,
		Interval:     s.Interval.String(),
	})

	if err != nil {
		body = []byte(err.Error())
		return content{
			responseCode:  http.StatusInternalServerError,
			contentType:   "text/plain; charset=utf-8",
			contentLength: strconv.Itoa(len(body)),
			body:          body,
		}
	}

	return content{
		responseCode:  h.coder(s),
		contentType:   "application/json",
		contentLength: strconv.Itoa(len(body)),
		lastModified:  lastModified,
		body:          body,
	}
}
