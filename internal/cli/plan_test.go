package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanText(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "text"}), testCatalog)
	require.NoError(t, err)

	assert.Contains(t, out, "Plan: 2 unit(s), 4 action(s)")
	assert.Contains(t, out, "Batches: 1, skipped: 1")
	assert.Contains(t, out, "1. app.Repo\n")
	assert.Contains(t, out, "2. app.Service (after app.Repo)")
	assert.Contains(t, out, "field app.Service.repo @Inject [injections]")
	assert.Contains(t, out, "method app.Service#start() @Startup [startup]")
	assert.NotContains(t, out, "app.FakeRepo")
}

func TestPlanTestMode(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "text"}), testCatalog, "--test-mode")
	require.NoError(t, err)

	assert.Contains(t, out, "Plan: 3 unit(s), 5 action(s)")
	assert.Contains(t, out, "3. app.FakeRepo")
}

func TestPlanJSON(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Fingerprint string `json:"fingerprint"`
			Plan        struct {
				Format string `json:"format"`
				Units  []struct {
					Key       string   `json:"key"`
					DependsOn []string `json:"depends_on"`
				} `json:"units"`
			} `json:"plan"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.Equal(t, "1", resp.Data.Plan.Format)
	require.Len(t, resp.Data.Plan.Units, 2)
	assert.Equal(t, "app.Repo", resp.Data.Plan.Units[0].Key)
	assert.Equal(t, []string{"app.Repo"}, resp.Data.Plan.Units[1].DependsOn)
}

func TestPlanFingerprintIsStable(t *testing.T) {
	first, err := executeCommand(NewPlanCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)
	second, err := executeCommand(NewPlanCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	withTests, err := executeCommand(NewPlanCommand(&RootOptions{Format: "json"}), testCatalog, "--test-mode")
	require.NoError(t, err)
	assert.NotEqual(t, first, withTests)
}

func TestPlanPackagesOverride(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "text"}), testCatalog, "--packages", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan: 0 unit(s), 0 action(s)")
}

func TestPlanCycle(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "text"}), "testdata/loop")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Processing failed [CYCLE_DETECTED]")
}

func TestPlanCycleJSON(t *testing.T) {
	out, err := executeCommand(NewPlanCommand(&RootOptions{Format: "json"}), "testdata/loop")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CYCLE_DETECTED", resp.Error.Code)
}

func TestPlanInvalidCatalog(t *testing.T) {
	_, err := executeCommand(NewPlanCommand(&RootOptions{Format: "text"}), "testdata/conflict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
