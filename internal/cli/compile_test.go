package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCatalog(t *testing.T) {
	out, err := executeCommand(NewCompileCommand(&RootOptions{Format: "text"}), testCatalog)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 annotation(s), 3 type(s), 3 binding(s)")
	assert.Contains(t, out, "Packages: app")
	assert.Contains(t, out, "app.Service: 1 method(s), 1 field(s) @Singleton")
	assert.Contains(t, out, "injections: @Inject → record")
	assert.Contains(t, out, "Hash: ")
}

func TestCompileCatalogJSON(t *testing.T) {
	out, err := executeCommand(NewCompileCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Catalog)
	assert.Len(t, resp.Data.Catalog.Types, 3)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Equal(t, 1, resp.Data.Files)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "catalog.json")

	out, err := executeCommand(NewCompileCommand(&RootOptions{Format: "text"}), testCatalog, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote catalog to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []string{"app"}, result.Catalog.Packages)
	assert.Len(t, result.Catalog.Bindings, 3)
}

func TestCompileIsDeterministic(t *testing.T) {
	first, err := executeCommand(NewCompileCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)
	second, err := executeCommand(NewCompileCommand(&RootOptions{Format: "json"}), testCatalog)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompileMissingDirectory(t *testing.T) {
	out, err := executeCommand(NewCompileCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := executeCommand(NewCompileCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
}

func TestCompileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`type "x" {`), 0o644))

	_, err := executeCommand(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E008")
}
