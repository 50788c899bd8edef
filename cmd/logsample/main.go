// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Program logsample emits sample logs and spans through the log pipeline.
package main

import (
	"github.com/spf13/cobra"

	"github.com/otel-log-samples/logpipeline/cmd/logsample/internal"
)

func main() {
	cobra.CheckErr(internal.Command().Execute())
}
