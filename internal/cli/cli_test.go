package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullFlagSet(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{
		"-flow", "flows/nightly.json",
		"-job-date", "2026-08-25",
		"-placeholder", "region=emea",
		"-placeholder", "run_no=7",
		"-vars", "vars.json",
		"-store", "/tmp/rulestore",
		"-node-timeout", "30s",
		"-visualize",
		"-log-format", "JSON",
		"-log-level", "DEBUG",
	}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "flows/nightly.json", cfg.FlowPath)
	assert.Equal(t, "2026-08-25", cfg.JobDate)
	assert.Equal(t, map[string]string{"region": "emea", "run_no": "7"}, cfg.Placeholders)
	assert.Equal(t, "vars.json", cfg.VarsPath)
	assert.Equal(t, "/tmp/rulestore", cfg.StorePath)
	assert.Equal(t, 30*time.Second, cfg.NodeTimeout)
	assert.True(t, cfg.Visualize)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_PositionalFlowPath(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"flows/nightly.json"}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "flows/nightly.json", cfg.FlowPath)
}

func TestParse_ShorthandFlag(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"-f", "x.json"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "x.json", cfg.FlowPath)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage")
}

func TestParse_BadPlaceholder(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	_, _, err := Parse([]string{"-placeholder", "no-equals-sign", "x.json"}, &out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
