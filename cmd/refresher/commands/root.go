// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package commands implements the refresher daemon's command line.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is the daemon version reported by the version command and in traces.
const Version = "0.1.0"

// newRootCommand assembles the command tree.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "refresher",
		Short: "refresher periodically refreshes a remote HTTP resource",
		Long: `refresher polls a remote HTTP resource on a fixed interval, throttling
manual refreshes, and exposes its state on /status and its metrics on /metrics.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}
