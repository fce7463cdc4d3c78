package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario processes one catalog directory with fixed options and
// asserts on the resulting plan, executions and injection context.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the catalog directory to load. Relative paths are resolved
	// against the directory holding the scenario file. When empty, the base
	// path given to LoadScenarioWithBasePath is used.
	Catalog string `yaml:"catalog,omitempty"`

	// Packages limits scanning. When empty, the catalog's packages apply.
	Packages []string `yaml:"packages,omitempty"`

	// TestMode enables processing of test-only types.
	TestMode bool `yaml:"test_mode,omitempty"`

	// MaxBatches overrides the discovery batch limit when positive.
	MaxBatches int `yaml:"max_batches,omitempty"`

	// RunID is the fixed run ID for deterministic results.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "plan_order": units appear in the plan in this relative order
	// - "plan_contains": a unit is planned, optionally with dependencies
	// - "executed": an element was executed
	// - "not_executed": an element was never executed
	// - "execution_count": number of executions matching element/annotation
	// - "injected": a type was added with exactly these handled annotations
	// - "fails_with": processing failed with this error code
	Type string `yaml:"type"`

	// Units is the expected unit order (plan_order).
	Units []string `yaml:"units,omitempty"`

	// Unit is a unit key (plan_contains).
	Unit string `yaml:"unit,omitempty"`

	// DependsOn lists keys the unit must depend on (plan_contains).
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Element is an element display name (executed, not_executed,
	// execution_count) or a type name (injected).
	Element string `yaml:"element,omitempty"`

	// Annotation narrows executed, not_executed and execution_count.
	Annotation string `yaml:"annotation,omitempty"`

	// Handled, when set, must match the execution's handled flag (executed).
	Handled *bool `yaml:"handled,omitempty"`

	// Count is the expected number of matching executions (execution_count).
	Count int `yaml:"count,omitempty"`

	// Annotations is the exact list of handled annotations (injected).
	Annotations []string `yaml:"annotations,omitempty"`

	// Code is the expected error code (fails_with): a runtime code such as
	// CYCLE_DETECTED, HANDLER_FAILED, or a catalog validation code.
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanOrder      = "plan_order"
	AssertPlanContains   = "plan_contains"
	AssertExecuted       = "executed"
	AssertNotExecuted    = "not_executed"
	AssertExecutionCount = "execution_count"
	AssertInjected       = "injected"
	AssertFailsWith      = "fails_with"
)

// LoadScenario reads and parses a scenario YAML file. The scenario must
// name its catalog.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file. A scenario
// without a catalog uses basePath as its catalog directory.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	switch {
	case scenario.Catalog == "":
		scenario.Catalog = basePath
	case !filepath.IsAbs(scenario.Catalog):
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	info, err := os.Stat(s.Catalog)
	if os.IsNotExist(err) {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}
	if err != nil {
		return fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("catalog is not a directory: %s", s.Catalog)
	}

	if s.MaxBatches < 0 {
		return fmt.Errorf("max_batches must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPlanOrder:
		if len(a.Units) == 0 {
			return fmt.Errorf("assertions[%d]: units list is required for plan_order", index)
		}
	case AssertPlanContains:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for plan_contains", index)
		}
	case AssertExecuted, AssertNotExecuted:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for %s", index, a.Type)
		}
	case AssertExecutionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for execution_count", index)
		}
	case AssertInjected:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for injected", index)
		}
	case AssertFailsWith:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for fails_with", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// expectsFailure reports whether the scenario asserts a failure.
func (s *Scenario) expectsFailure() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertFailsWith {
			return true
		}
	}
	return false
}
