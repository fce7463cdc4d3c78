package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxBatches is the default limit on discovery batches per run.
const DefaultMaxBatches = 1000

// QuotaEnforcer counts discovery batches and enforces a maximum.
//
// Bindings added through DependencyControl.AddBinding are drained as a
// further batch. The quota bounds how many batches one discovery may drain
// and turns an overrun into an error instead of an open-ended loop.
type QuotaEnforcer struct {
	maxBatches int
	current    int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxBatches int) *QuotaEnforcer {
	return &QuotaEnforcer{maxBatches: maxBatches}
}

// Check increments the batch counter and validates against the limit.
// Call it before processing each batch.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxBatches {
		return &BatchesExceededError{
			Batches: q.current,
			Limit:   q.maxBatches,
		}
	}
	return nil
}

// Current returns the number of batches counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxBatches returns the limit.
func (q *QuotaEnforcer) MaxBatches() int {
	return q.maxBatches
}

// BatchesExceededError is returned when discovery exceeds the batch quota.
type BatchesExceededError struct {
	Batches int
	Limit   int
}

// Error implements the error interface.
func (e *BatchesExceededError) Error() string {
	return fmt.Sprintf("discovery exceeded max batches quota: %d batches > %d limit", e.Batches, e.Limit)
}

// IsBatchesExceededError returns true if the error is a BatchesExceededError.
func IsBatchesExceededError(err error) bool {
	var be *BatchesExceededError
	return errors.As(err, &be)
}
