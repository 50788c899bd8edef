// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal // import "github.com/otel-log-samples/logpipeline/cmd/logsample/internal"

import (
	"github.com/spf13/cobra"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	date    = "unknown"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version of logsample",
		Long:  "Prints the version and build date of the logsample binary",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (built %s)\n", cmd.Parent().Name(), version, date)
		},
	}
}
