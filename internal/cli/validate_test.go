package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidCatalog(t *testing.T) {
	out, err := executeCommand(NewValidateCommand(&RootOptions{Format: "text"}), testCatalog)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Catalog valid: 3 annotation(s), 3 type(s), 3 binding(s)")
	assert.Contains(t, out, "Binding order:")
	assert.Contains(t, out, "1. singletons")
	assert.Contains(t, out, "2. injections")
	assert.Contains(t, out, "3. startup")
}

func TestValidateValidCatalogJSON(t *testing.T) {
	out, err := executeCommand(NewValidateCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"singletons", "injections", "startup"}, resp.Data.Order)
}

func TestValidateRuleConflict(t *testing.T) {
	out, err := executeCommand(NewValidateCommand(&RootOptions{Format: "text"}), "testdata/conflict")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "[E109]")
}

func TestValidateRuleConflictJSON(t *testing.T) {
	out, err := executeCommand(NewValidateCommand(&RootOptions{Format: "json"}), "testdata/conflict")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E109", resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestValidateDependencyCycleIsNotStatic(t *testing.T) {
	// Dependency cycles are only found when planning.
	_, err := executeCommand(NewValidateCommand(&RootOptions{Format: "text"}), "testdata/loop")
	require.NoError(t, err)
}

func TestValidateCompileErrorIsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`type "x" {`), 0o644))

	out, err := executeCommand(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[E008]")
}

func TestValidateMissingDirectory(t *testing.T) {
	_, err := executeCommand(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
