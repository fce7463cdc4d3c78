package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a configuration error detected while planning.
//
// Runtime errors include:
//   - Cycle detection: the merged unit graph is not acyclic
//   - Rule conflict: ordering rules contradict each other
//   - Quota exceeded: dynamic registration did not reach a fixed point
//
// A RuntimeError always aborts the run; nothing executes after it.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeCycleDetected indicates the unit dependency graph has a cycle.
	ErrCodeCycleDetected RuntimeErrorCode = "CYCLE_DETECTED"

	// ErrCodeRuleConflict indicates entry ordering rules contradict each other.
	ErrCodeRuleConflict RuntimeErrorCode = "RULE_CONFLICT"

	// ErrCodeQuotaExceeded indicates discovery exceeded the batch limit.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeHandlerFailed is reported for a HandlerError. It is never the
	// Code of a RuntimeError.
	ErrCodeHandlerFailed RuntimeErrorCode = "HANDLER_FAILED"

	// ErrCodeUnknown is reported for any other error.
	ErrCodeUnknown RuntimeErrorCode = "ERROR"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasRuntimeCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsCycleError returns true if the error is a unit cycle error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasRuntimeCode(err, ErrCodeCycleDetected)
}

// IsRuleConflictError returns true if the error is a rule conflict error.
func IsRuleConflictError(err error) bool {
	return hasRuntimeCode(err, ErrCodeRuleConflict)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and BatchesExceededError.
func IsQuotaError(err error) bool {
	if hasRuntimeCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var be *BatchesExceededError
	return errors.As(err, &be)
}

// NewCycleError wraps a graph cycle into a RuntimeError.
func NewCycleError(cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCycleDetected,
		Message: "processing units depend on each other",
		Err:     cause,
	}
}

// NewRuleConflictError wraps a rule constraint cycle into a RuntimeError.
func NewRuleConflictError(cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRuleConflict,
		Message: "ordering rules contradict each other",
		Err:     cause,
	}
}

// NewQuotaError wraps a BatchesExceededError into a RuntimeError.
func NewQuotaError(cause *BatchesExceededError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: "discovery did not reach a fixed point",
		Details: map[string]string{
			"batches":     fmt.Sprintf("%d", cause.Batches),
			"max_batches": fmt.Sprintf("%d", cause.Limit),
		},
		Err: cause,
	}
}

// Phase names the handler hook that failed.
type Phase string

const (
	PhaseRegisterMetadata  Phase = "register_metadata"
	PhaseCheckDependencies Phase = "check_dependencies"
	PhaseHandle            Phase = "handle"
)

// HandlerError reports a failure raised by a handler hook. The handler's
// error is kept unchanged and reachable through errors.Is / errors.As.
type HandlerError struct {
	Phase      Phase
	Element    string
	Annotation string
	Err        error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s failed for @%s on %s: %v", e.Phase, e.Annotation, e.Element, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsHandlerError returns true if the error is or wraps a HandlerError.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// ErrorCode classifies err for reports and stored runs. It returns "" for
// nil, the Code of a RuntimeError, ErrCodeHandlerFailed for a HandlerError
// and ErrCodeUnknown otherwise.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	if IsHandlerError(err) {
		return string(ErrCodeHandlerFailed)
	}
	return string(ErrCodeUnknown)
}
