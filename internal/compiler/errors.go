package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/hashicorp/hcl/v2"

	cueerrors "cuelang.org/go/cue/errors"
)

// CompileError is a catalog compilation error. Pos is set for CUE sources,
// Range for HCL sources.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Range   *hcl.Range
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Range != nil && e.Range.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column,
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// formatHCLDiagnostics converts the first error diagnostic into a
// CompileError carrying its source range.
func formatHCLDiagnostics(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		return &CompileError{
			Field:   "hcl",
			Message: msg,
			Range:   d.Subject,
		}
	}
	return diags
}
