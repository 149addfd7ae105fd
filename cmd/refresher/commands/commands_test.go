// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/refresher/internal/config"
	"go.uber.org/zap/zaptest"
)

type CommandsTestSuite struct {
	suite.Suite

	target *httptest.Server
}

func (suite *CommandsTestSuite) SetupTest() {
	suite.target = httptest.NewServer(http.HandlerFunc(func(response http.ResponseWriter, _ *http.Request) {
		response.Write([]byte(`{"feature": true}`))
	}))
}

func (suite *CommandsTestSuite) TearDownTest() {
	suite.target.Close()
}

func (suite *CommandsTestSuite) config() *config.Config {
	cfg := config.Default()
	cfg.Name = "test"
	cfg.Interval = time.Hour
	cfg.StopTimeout = time.Second
	cfg.Listen = "127.0.0.1:0"
	cfg.Target.URL = suite.target.URL
	suite.Require().NoError(cfg.Validate())
	return &cfg
}

func (suite *CommandsTestSuite) TestVersion() {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	suite.Require().NoError(root.Execute())
	suite.Equal(Version, strings.TrimSpace(out.String()))
}

func (suite *CommandsTestSuite) TestRunBadConfig() {
	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"run", "--config", "/nosuch/refresher.yaml"})
	suite.Error(root.Execute())
}

func (suite *CommandsTestSuite) TestNewLogger() {
	for _, format := range []string{"json", "text"} {
		logger, err := newLogger(config.Log{Level: "debug", Format: format})
		suite.Require().NoError(err)
		suite.NotNil(logger)
	}

	_, err := newLogger(config.Log{Level: "verbose", Format: "json"})
	suite.Error(err)
}

func (suite *CommandsTestSuite) get(client *http.Client, url string) (int, []byte) {
	response, err := client.Get(url)
	suite.Require().NoError(err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	suite.Require().NoError(err)
	return response.StatusCode, body
}

func (suite *CommandsTestSuite) TestDaemon() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := newDaemon(ctx, suite.config(), zaptest.NewLogger(suite.T()))
	suite.Require().NoError(err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)

	runErr := make(chan error, 1)
	go func() {
		runErr <- d.run(ctx, l)
	}()

	var (
		client = &http.Client{Timeout: 5 * time.Second}
		base   = "http://" + l.Addr().String()
	)

	suite.Eventually(
		func() bool {
			response, err := client.Get(base + "/status")
			if err != nil {
				return false
			}

			response.Body.Close()
			return response.StatusCode == http.StatusOK
		},
		5*time.Second,
		10*time.Millisecond,
	)

	code, body := suite.get(client, base+"/status")
	suite.Equal(http.StatusOK, code)

	var state map[string]any
	suite.Require().NoError(json.Unmarshal(body, &state))
	suite.Equal("test", state["name"])
	suite.Equal(true, state["updated"])
	suite.Equal("1h0m0s", state["interval"])

	code, body = suite.get(client, base+"/metrics")
	suite.Equal(http.StatusOK, code)
	suite.Contains(string(body), `refresher_cycles_total{name="test",outcome="succeeded"} 1`)
	suite.Contains(string(body), `refresher_running{name="test"} 1`)

	// the scheduled refresh just ran, so a manual one is throttled
	response, err := client.Post(base+"/refresh", "application/json", nil)
	suite.Require().NoError(err)
	response.Body.Close()
	suite.Equal(http.StatusTooManyRequests, response.StatusCode)

	cancel()
	select {
	case err := <-runErr:
		suite.NoError(err)

	case <-time.After(5 * time.Second):
		suite.FailNow("the daemon did not shut down")
	}

	suite.False(d.updater.IsRunning())
}

func TestCommands(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}
