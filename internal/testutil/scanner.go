package testutil

import (
	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// RecordingScanner wraps a scanner and records every query as
// "<kind>:<annotation>".
type RecordingScanner struct {
	Inner engine.Scanner
	Calls []string
}

// NewRecordingScanner wraps inner.
func NewRecordingScanner(inner engine.Scanner) *RecordingScanner {
	return &RecordingScanner{Inner: inner}
}

func (s *RecordingScanner) TypesWith(annotation string, packages []string) []ir.TypeElement {
	s.Calls = append(s.Calls, "type:"+annotation)
	return s.Inner.TypesWith(annotation, packages)
}

func (s *RecordingScanner) MethodsWith(annotation string, packages []string) []ir.MethodElement {
	s.Calls = append(s.Calls, "method:"+annotation)
	return s.Inner.MethodsWith(annotation, packages)
}

func (s *RecordingScanner) FieldsWith(annotation string, packages []string) []ir.FieldElement {
	s.Calls = append(s.Calls, "field:"+annotation)
	return s.Inner.FieldsWith(annotation, packages)
}
