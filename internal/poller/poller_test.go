// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type PollerTestSuite struct {
	suite.Suite

	body       atomic.Value
	etag       atomic.Value
	statusCode atomic.Int32
	requests   atomic.Int32
	server     *httptest.Server
}

func (suite *PollerTestSuite) SetupTest() {
	suite.body.Store("first")
	suite.etag.Store("")
	suite.statusCode.Store(http.StatusOK)
	suite.requests.Store(0)

	suite.server = httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		suite.requests.Add(1)
		etag := suite.etag.Load().(string)
		if len(etag) > 0 {
			if request.Header.Get("If-None-Match") == etag {
				response.WriteHeader(http.StatusNotModified)
				return
			}

			response.Header().Set("ETag", etag)
		}

		response.WriteHeader(int(suite.statusCode.Load()))
		response.Write([]byte(suite.body.Load().(string)))
	}))
}

func (suite *PollerTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *PollerTestSuite) newPoller(cfg Config) *Poller {
	if len(cfg.URL) == 0 {
		cfg.URL = suite.server.URL
	}

	p, err := New(cfg, zaptest.NewLogger(suite.T()))
	suite.Require().NoError(err)
	suite.Require().NotNil(p)
	return p
}

func (suite *PollerTestSuite) TestNew() {
	p, err := New(Config{}, nil)
	suite.Error(err)
	suite.Nil(p)

	p, err = New(Config{URL: "http://localhost/"}, nil)
	suite.NoError(err)
	suite.Equal(DefaultMaxBodySize, p.maxBodySize)
	suite.Same(http.DefaultClient, p.client)
}

func (suite *PollerTestSuite) TestChanges() {
	p := suite.newPoller(Config{})

	result, err := p.Poll(context.Background(), struct{}{})
	suite.Require().NoError(err)
	suite.Equal(http.StatusOK, result.StatusCode)
	suite.True(result.Changed)
	suite.Equal("first", string(result.Body))
	suite.Equal(5, result.Size)
	suite.Len(result.Digest, 64)

	result, err = p.Poll(context.Background(), struct{}{})
	suite.Require().NoError(err)
	suite.False(result.Changed)

	suite.body.Store("second")
	result, err = p.Poll(context.Background(), struct{}{})
	suite.Require().NoError(err)
	suite.True(result.Changed)
	suite.Equal("second", string(result.Body))
	suite.Equal(result, p.Last())
}

func (suite *PollerTestSuite) TestNotModified() {
	suite.etag.Store(`"v1"`)
	p := suite.newPoller(Config{})

	first, err := p.Poll(context.Background(), struct{}{})
	suite.Require().NoError(err)
	suite.True(first.Changed)

	second, err := p.Poll(context.Background(), struct{}{})
	suite.Require().NoError(err)
	suite.True(second.NotModified)
	suite.False(second.Changed)
	suite.Equal(http.StatusNotModified, second.StatusCode)
	suite.Equal(first.Digest, second.Digest)
	suite.Equal(int32(2), suite.requests.Load())
}

func (suite *PollerTestSuite) TestUnexpectedStatus() {
	suite.statusCode.Store(http.StatusInternalServerError)
	p := suite.newPoller(Config{})

	_, err := p.Poll(context.Background(), struct{}{})
	suite.ErrorIs(err, ErrUnexpectedStatus)
	suite.Zero(p.Last().StatusCode)
}

func (suite *PollerTestSuite) TestBodyTooLarge() {
	suite.body.Store(strings.Repeat("x", 100))
	p := suite.newPoller(Config{MaxBodySize: 10})

	_, err := p.Poll(context.Background(), struct{}{})
	suite.ErrorIs(err, ErrBodyTooLarge)
}

func (suite *PollerTestSuite) TestTimeout() {
	slow := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))

	defer slow.Close()

	p := suite.newPoller(Config{URL: slow.URL, Timeout: 20 * time.Millisecond})
	_, err := p.Poll(context.Background(), struct{}{})
	suite.ErrorIs(err, context.DeadlineExceeded)
}

func TestPoller(t *testing.T) {
	suite.Run(t, new(PollerTestSuite))
}
