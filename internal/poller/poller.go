// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package poller fetches a remote HTTP resource on behalf of an Updater.
package poller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxBodySize is the largest response body the Poller reads.
	DefaultMaxBodySize int64 = 1 << 20
)

var (
	// ErrUnexpectedStatus indicates the remote resource returned a non-2xx, non-304 response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrBodyTooLarge indicates the response body exceeded the maximum size.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Result describes one successful poll.
type Result struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// NotModified is true when the server answered a conditional request with a 304.
	NotModified bool

	// Changed is true when the body differs from the previous successful poll.
	Changed bool

	// Digest is the hex-encoded SHA-256 of the most recent body.
	Digest string

	// Size is the length of the most recent body.
	Size int

	// Body is the most recent body.
	Body []byte
}

// Config holds the settings for a Poller.
type Config struct {
	// URL is the resource to fetch.
	URL string

	// Timeout bounds each request. If nonpositive, only the caller's context applies.
	Timeout time.Duration

	// MaxBodySize limits how much of a body is read. If nonpositive,
	// DefaultMaxBodySize is used.
	MaxBodySize int64

	// Client is the HTTP client to use. If nil, http.DefaultClient is used.
	Client *http.Client
}

// Poller fetches a single URL, using ETags to avoid refetching unchanged content.
type Poller struct {
	url         string
	timeout     time.Duration
	maxBodySize int64
	client      *http.Client
	logger      *zap.Logger

	lock sync.Mutex
	etag string
	last Result
}

// New creates a Poller. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Poller, error) {
	if len(cfg.URL) == 0 {
		return nil, errors.New("a URL is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Poller{
		url:         cfg.URL,
		timeout:     cfg.Timeout,
		maxBodySize: cfg.MaxBodySize,
		client:      cfg.Client,
		logger:      logger.Named("poller").With(zap.String("url", cfg.URL)),
	}

	if p.maxBodySize <= 0 {
		p.maxBodySize = DefaultMaxBodySize
	}

	if p.client == nil {
		p.client = http.DefaultClient
	}

	return p, nil
}

// Last returns the most recent successful Result.
func (p *Poller) Last() Result {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.last
}

// Poll fetches the URL once. Its signature matches refresher.Work[struct{}, Result].
func (p *Poller) Poll(ctx context.Context, _ struct{}) (Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Result{}, err
	}

	p.lock.Lock()
	etag := p.etag
	p.lock.Unlock()

	if len(etag) > 0 {
		request.Header.Set("If-None-Match", etag)
	}

	response, err := p.client.Do(request)
	if err != nil {
		return Result{}, err
	}

	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotModified:
		p.logger.Debug("resource not modified")
		p.lock.Lock()
		defer p.lock.Unlock()
		p.last.StatusCode = response.StatusCode
		p.last.NotModified = true
		p.last.Changed = false
		return p.last, nil

	case response.StatusCode < 200 || response.StatusCode > 299:
		io.Copy(io.Discard, io.LimitReader(response.Body, p.maxBodySize))
		return Result{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, p.maxBodySize+1))
	if err != nil {
		return Result{}, err
	} else if int64(len(body)) > p.maxBodySize {
		return Result{}, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, p.maxBodySize)
	}

	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	p.lock.Lock()
	defer p.lock.Unlock()

	p.etag = response.Header.Get("ETag")
	p.last = Result{
		StatusCode: response.StatusCode,
		Changed:    digest != p.last.Digest,
		Digest:     digest,
		Size:       len(body),
		Body:       body,
	}

	if p.last.Changed {
		p.logger.Info("resource changed", zap.String("digest", digest), zap.Int("size", len(body)))
	}

	return p.last, nil
}
