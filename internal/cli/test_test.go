package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenario copies a scenario from testdata/scenarios into dir.
func copyScenario(t *testing.T, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testScenarios, name+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644))
}

func TestTestCommandPasses(t *testing.T) {
	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, testScenarios)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ ordering")
	assert.Contains(t, out, "✓ test_mode")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "json"}), testCatalog, testScenarios)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, testScenarios, "--filter", "test_*")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ test_mode")
	assert.NotContains(t, out, "ordering")
	assert.Contains(t, out, "1 total")
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "ordering")

	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ordering")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "ordering.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(testScenarios, "golden", "ordering.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	_, err = executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, dir)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "ordering")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "ordering.golden"), []byte("{}"), 0o644))

	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ ordering")
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
description: "Expects the reverse order"
assertions:
  - type: plan_order
    units: [app.Service, app.Repo]
`), 0o644))

	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "json"}), testCatalog, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Error  *CLIError  `json:"error"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "should be before")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingDirectories(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := executeCommand(NewTestCommand(&RootOptions{Format: "text"}), missing, testScenarios)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = executeCommand(NewTestCommand(&RootOptions{Format: "text"}), testCatalog, missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "ordering.golden"),
		goldenFilePath(filepath.Join("scenarios", "ordering.yaml")))
}
