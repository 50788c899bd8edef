// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/otel-log-samples/logpipeline/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCommand(t *testing.T) {
	got := Command()
	assert.Equal(t, "logsample", got.Use)
	assert.True(t, got.SilenceUsage)
	assert.True(t, got.SilenceErrors)
	assert.True(t, strings.HasPrefix(got.Long, "logsample emits sample application logs"))
	assert.Empty(t, got.Short)
	for _, name := range []string{configFlag, setFlag, endpointFlag, exporterFlag, logLevelFlag, serviceNameFlag, scenariosFlag, workDelayFlag} {
		assert.NotNil(t, got.Flags().Lookup(name), name)
	}
	for name := range flagKeys {
		assert.NotNil(t, got.Flags().Lookup(name), name)
	}
	require.Len(t, got.Commands(), 1)
	assert.Equal(t, "version", got.Commands()[0].Name())
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "logsample version dev (built unknown)\n", out)
}

func TestRunWithDebugExporter(t *testing.T) {
	logs := filepath.Join(t.TempDir(), "logs.txt")
	out, err := execute(t,
		"--exporter", "debug",
		"--service-name", "sample-test",
		"--log-level", "error",
		"--work-delay", "0",
		"--set", "logs::debug::output_paths="+logs,
		"--set", "traces::enabled=false",
		"--set", "resource::detectors=",
	)
	require.NoError(t, err)

	for _, msg := range []string{
		"INFO level: general information",
		"User logged in: name=alice, id=12345",
		"Order accepted",
		"User registration completed",
		"Payment processing failed",
	} {
		assert.Contains(t, out, msg)
	}

	content, err := os.ReadFile(logs)
	require.NoError(t, err)
	for _, msg := range []string{
		"INFO level: general information",
		"slog WARN level",
		"Payment transaction completed",
		"User registration completed",
		"Payment processing failed",
	} {
		assert.Contains(t, string(content), msg)
	}
}

func TestRunSelectedScenarios(t *testing.T) {
	out, err := execute(t,
		"--exporter", "none",
		"--log-level", "error",
		"--scenarios", "basic",
		"--set", "traces::enabled=false",
		"--set", "resource::detectors=",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "--- basic logging ---")
	assert.NotContains(t, out, "--- structured logging ---")
}

func TestRunUnknownScenario(t *testing.T) {
	_, err := execute(t, "--scenarios", "basic,fireworks")
	require.ErrorContains(t, err, `unknown scenario "fireworks"`)
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := execute(t,
		"--exporter", "debug",
		"--set", "logs::batch::max_queue_size=1",
		"--set", "traces::enabled=false",
	)
	require.ErrorContains(t, err, "invalid configuration")

	_, err = execute(t, "--exporter", "kafka")
	require.ErrorContains(t, err, "kafka")
}

func TestRunRejectsArguments(t *testing.T) {
	_, err := execute(t, "extra")
	require.Error(t, err)
}

func TestSelectScenarios(t *testing.T) {
	selected, err := selectScenarios([]string{"errors", "basic"})
	require.NoError(t, err)
	assert.Equal(t, []string{"errors", "basic"}, namesOf(selected))

	selected, err = selectScenarios(nil)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resource:
  service_name: from-file
logs:
  exporter: debug
  otlp:
    endpoint: file:4317
`), 0o600))
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "env:4317")
	t.Setenv("OTEL_SERVICE_NAME", "from-env")

	cmd := Command()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--set", "resource::service_name=from-set",
		"--set", "logs::exporter=none",
		"--endpoint", "flag:4317",
	}))
	cfg, err := loadConfig(cmd.Flags())
	require.NoError(t, err)

	assert.Equal(t, "from-set", cfg.Resource.ServiceName)
	assert.Equal(t, service.ExporterNone, cfg.Logs.Exporter)
	assert.Equal(t, "flag:4317", cfg.Logs.OTLP.ClientConfig.Endpoint)
	assert.Equal(t, "flag:4317", cfg.Traces.Endpoint)

	cmd = Command()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--set", "resource::service_name=from-set",
		"--service-name", "from-flag",
	}))
	cfg, err = loadConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Resource.ServiceName)
	assert.Equal(t, service.ExporterDebug, cfg.Logs.Exporter)
	assert.Equal(t, "env:4317", cfg.Logs.OTLP.ClientConfig.Endpoint)
}
