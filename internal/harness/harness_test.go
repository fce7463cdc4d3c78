package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRunScenariosGolden(t *testing.T) {
	for _, name := range []string{
		"basic_plan",
		"test_mode",
		"dynamic_binding",
		"cycle",
		"handler_failure",
	} {
		t.Run(name, func(t *testing.T) {
			s := loadTestScenario(t, name)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRunBasicPlan(t *testing.T) {
	result, err := Run(loadTestScenario(t, "basic_plan"))
	require.NoError(t, err)
	require.True(t, result.Pass, "assertion errors: %v", result.Errors)

	assert.Equal(t, "run-basic", result.RunID)
	assert.False(t, result.Failed())
	assert.Len(t, result.Fingerprint, 64)

	require.Len(t, result.Units, 2)
	assert.Equal(t, "app.Repo", result.Units[0].Key)
	assert.Equal(t, []string{"app.Repo"}, result.Units[1].DependsOn)
	assert.Len(t, result.Units[1].Actions, 3)

	require.Len(t, result.Records, 4)
	for i, rec := range result.Records {
		assert.Equal(t, int64(i+1), rec.Seq)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "dynamic_binding")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunTestModeChangesFingerprint(t *testing.T) {
	off, err := Run(loadTestScenario(t, "basic_plan"))
	require.NoError(t, err)
	on, err := Run(loadTestScenario(t, "test_mode"))
	require.NoError(t, err)

	assert.NotEqual(t, off.Fingerprint, on.Fingerprint)
}

func TestRunValidationFailure(t *testing.T) {
	result, err := Run(loadTestScenario(t, "rule_conflict"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "assertion errors: %v", result.Errors)
	assert.Equal(t, "E109", result.ErrorCode)
	assert.Contains(t, result.Error, "contradictory ordering rules")
	assert.Nil(t, result.Plan)
	assert.Empty(t, result.Records)
}

func TestRunUnexpectedFailureFailsScenario(t *testing.T) {
	s := loadTestScenario(t, "cycle")
	s.Assertions = []Assertion{{Type: AssertExecutionCount, Count: 0}}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected failure")
	assert.Contains(t, result.Errors[0], "CYCLE_DETECTED")
}

func TestRunFailingAssertion(t *testing.T) {
	s := loadTestScenario(t, "basic_plan")
	s.Assertions = []Assertion{{Type: AssertPlanOrder, Units: []string{"app.Service", "app.Repo"}}}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "should be before")
}

func TestRunQuotaExceeded(t *testing.T) {
	s := loadTestScenario(t, "dynamic_binding")
	s.MaxBatches = 1
	s.Assertions = []Assertion{{Type: AssertFailsWith, Code: "QUOTA_EXCEEDED"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "assertion errors: %v", result.Errors)
	assert.Nil(t, result.Plan)
}

func TestRunPackagesOverride(t *testing.T) {
	s := loadTestScenario(t, "basic_plan")
	s.Packages = []string{"other"}
	s.Assertions = []Assertion{{Type: AssertExecutionCount, Count: 0}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "assertion errors: %v", result.Errors)
	assert.Empty(t, result.Units)
}

func TestRunCatalogLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`type "x" {`), 0o644))

	_, err := Run(&Scenario{
		Name:       "bad",
		Catalog:    dir,
		Assertions: []Assertion{{Type: AssertExecutionCount}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}
