// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EventsTestSuite struct {
	suite.Suite
}

func (suite *EventsTestSuite) TestFold() {
	testCases := []struct {
		name      string
		decisions []Decision
		expected  Decision
	}{
		{
			name:     "None",
			expected: Continue(),
		},
		{
			name:      "AllContinue",
			decisions: []Decision{Continue(), Continue()},
			expected:  Continue(),
		},
		{
			name:      "OneCancel",
			decisions: []Decision{Continue(), Cancel("busy"), Continue()},
			expected:  Cancel("busy"),
		},
		{
			name:      "FirstReasonWins",
			decisions: []Decision{Cancel("first"), Cancel("second")},
			expected:  Cancel("first"),
		},
		{
			name:      "EmptyReasonReplaced",
			decisions: []Decision{Cancel(""), Continue(), Cancel("second")},
			expected:  Cancel("second"),
		},
	}

	for _, testCase := range testCases {
		suite.Run(testCase.name, func() {
			var d Decision
			for _, next := range testCase.decisions {
				d = d.fold(next)
			}

			suite.Equal(testCase.expected, d)
		})
	}
}

func (suite *EventsTestSuite) TestCancellable() {
	suite.True(EventStarting.Cancellable())
	suite.True(EventStopping.Cancellable())
	suite.False(EventStartingCanceled.Cancellable())
	suite.False(EventStarted.Cancellable())
	suite.False(EventStopped.Cancellable())
}

func (suite *EventsTestSuite) TestDistinctStrings() {
	// we don't care what the string values are, just that they're distinct
	m := make(map[string]bool)
	for _, t := range []LifecycleEventType{EventStarting, EventStartingCanceled, EventStarted, EventStopping, EventStopped} {
		m[t.String()] = true
	}

	suite.Len(m, 5)

	m = make(map[string]bool)
	for _, p := range []Phase{PhaseNotStarted, PhaseRunning, PhaseStopRequested, PhaseStopped} {
		m[p.String()] = true
	}

	suite.Len(m, 4)

	m = make(map[string]bool)
	for _, o := range []Outcome{OutcomeSucceeded, OutcomeCancelled, OutcomeFailed, OutcomeAborted} {
		m[o.String()] = true
	}

	suite.Len(m, 4)
}

func (suite *EventsTestSuite) TestMarshalText() {
	text, err := EventStopped.MarshalText()
	suite.NoError(err)
	suite.Equal("stopped", string(text))

	text, err = PhaseStopRequested.MarshalText()
	suite.NoError(err)
	suite.Equal("stopRequested", string(text))
}

func TestEvents(t *testing.T) {
	suite.Run(t, new(EventsTestSuite))
}
