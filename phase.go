// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

//go:generate stringer -type=Phase -linecomment

// Phase describes where an Updater's background worker is in its lifecycle.
type Phase uint8

const (
	// PhaseNotStarted indicates an Updater that has never been started.
	PhaseNotStarted Phase = iota // notStarted

	// PhaseRunning indicates an Updater whose worker is executing cycles.
	PhaseRunning // running

	// PhaseStopRequested indicates an Updater that has been asked to stop, but
	// whose worker may still be finishing a cycle.
	PhaseStopRequested // stopRequested

	// PhaseStopped indicates an Updater whose worker has exited or been abandoned.
	PhaseStopped // stopped
)

// MarshalText produces the string value of this Phase.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
