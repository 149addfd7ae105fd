// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite

	registry *prometheus.Registry
	metrics  *Metrics
}

func (suite *MetricsTestSuite) SetupTest() {
	suite.registry = prometheus.NewPedanticRegistry()

	var err error
	suite.metrics, err = NewMetrics(suite.registry, "test")
	suite.Require().NoError(err)
}

func (suite *MetricsTestSuite) TestDuplicateRegistration() {
	m, err := NewMetrics(suite.registry, "test")
	suite.Error(err)
	suite.Nil(m)
}

func (suite *MetricsTestSuite) TestObserveCycle() {
	start := time.Unix(1700000000, 0)
	suite.metrics.ObserveCycle(CycleResult{
		Name:     "config",
		Outcome:  OutcomeSucceeded,
		Start:    start,
		Duration: 2 * time.Second,
	})

	suite.metrics.ObserveCycle(CycleResult{
		Name:    "config",
		Outcome: OutcomeFailed,
		Start:   start.Add(time.Minute),
		Err:     errors.New("expected"),
	})

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.CyclesTotal.WithLabelValues("config", "succeeded")))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.CyclesTotal.WithLabelValues("config", "failed")))
	suite.Equal(float64(start.Unix()+2), testutil.ToFloat64(suite.metrics.LastSuccess.WithLabelValues("config")))
	suite.Equal(1, testutil.CollectAndCount(suite.metrics.CycleDuration))
}

func (suite *MetricsTestSuite) TestWithUpdater() {
	var calls atomic.Int32
	op, err := NewOperation(
		AsWork[struct{}, struct{}](func() error { calls.Add(1); return nil }),
		WithDefaultUpdateInterval(time.Minute),
	)

	suite.Require().NoError(err)

	u, err := NewUpdater(
		op,
		WithName("metrics"),
		WithListeners(suite.metrics),
		WithCycleObserver(suite.metrics),
	)

	suite.Require().NoError(err)
	suite.Require().NoError(u.Start())
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.Running.WithLabelValues("metrics")))

	suite.Eventually(
		func() bool {
			return testutil.ToFloat64(suite.metrics.CyclesTotal.WithLabelValues("metrics", "succeeded")) == 1.0
		},
		time.Second,
		5*time.Millisecond,
	)

	suite.Require().NoError(u.Stop(context.Background()))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.Running.WithLabelValues("metrics")))
	suite.Equal(int32(1), calls.Load())
}

func TestMetrics(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}
