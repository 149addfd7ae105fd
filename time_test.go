// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/chronon"
)

// fakeTimer creates a fake, controllable newTimer closure
// from the given FakeClock.
func fakeTimer(fc *chronon.FakeClock) newTimer {
	return func(d time.Duration) (<-chan time.Time, func() bool) {
		ft := fc.NewTimer(d)
		return ft.C(), ft.Stop
	}
}

type TimeTestSuite struct {
	suite.Suite
}

func (suite *TimeTestSuite) TestSleepNonpositive() {
	nt := newTimer(func(time.Duration) (<-chan time.Time, func() bool) {
		suite.Fail("no timer should be created")
		return nil, nil
	})

	suite.NoError(nt.sleep(context.Background(), 0))
	suite.NoError(nt.sleep(context.Background(), -time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	suite.ErrorIs(nt.sleep(ctx, 0), context.Canceled)
}

func (suite *TimeTestSuite) TestSleepElapses() {
	start := time.Now()
	suite.NoError(newTimer(defaultNewTimer).sleep(context.Background(), 20*time.Millisecond))
	suite.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}

func (suite *TimeTestSuite) TestSleepCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	err := newTimer(defaultNewTimer).sleep(ctx, time.Hour)
	suite.ErrorIs(err, context.Canceled)
	suite.Less(time.Since(start), time.Minute)
}

func TestTime(t *testing.T) {
	suite.Run(t, new(TimeTestSuite))
}
