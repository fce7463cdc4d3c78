package harness

import (
	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
	"github.com/roach88/iocplan/internal/store"
)

// InjectedType is a type the run added to the injection context and the
// annotations whose handlers acted on it.
type InjectedType struct {
	Type    string   `json:"type"`
	Handled []string `json:"handled"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// RunID is the fixed run ID the scenario ran under.
	RunID string `json:"run_id,omitempty"`

	// Plan is the plan description. Nil when planning failed.
	Plan ir.Object `json:"plan,omitempty"`

	// Fingerprint hashes Plan.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Units are the plan units as read back from the run store.
	Units []store.PlanUnit `json:"-"`

	// Records are the executions as read back from the run store.
	Records []engine.ExecutionRecord `json:"executions"`

	// Injected lists added types in the order they were added.
	Injected []InjectedType `json:"injected"`

	// ErrorCode classifies the failure, if any. See engine.ErrorCode; a
	// catalog validation failure reports its validation code.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the failure message, if any.
	Error string `json:"error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Records:  []engine.ExecutionRecord{},
		Injected: []InjectedType{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether processing failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != ""
}
