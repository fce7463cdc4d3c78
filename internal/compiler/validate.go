package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/iocplan/internal/handlers"
	"github.com/roach88/iocplan/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyName          = "E101" // annotation, type, member or binding without a name
	ErrUnknownAnnotation  = "E102" // binding or rule names an undeclared annotation
	ErrUnknownHandler     = "E103" // binding names a handler that does not exist
	ErrTargetMismatch     = "E104" // annotation placed on an element kind it does not target
	ErrDuplicateName      = "E105" // duplicate annotation, type, member or binding name
	ErrProvidedTypes      = "E106" // provided binding without types, or types on another handler
	ErrUnknownType        = "E107" // provided type is not declared
	ErrPackageMismatch    = "E108" // explicit package does not prefix the type name
	ErrRuleConflict       = "E109" // binding rules contradict each other
	ErrDuplicateMemberAnn = "E110" // annotation repeated on the same element
	ErrDuplicateTarget    = "E111" // element kind repeated in an annotation's targets
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled catalog. Returns all errors found (does not
// fail-fast), in declaration order.
func Validate(c *ir.Catalog) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateAnnotations(c)...)
	errs = append(errs, validateTypes(c)...)
	errs = append(errs, validateBindings(c)...)

	for _, conflict := range AnalyzeRules(c.Bindings) {
		errs = append(errs, ValidationError{
			Field:   "binding." + conflict.Path[0] + ".rules",
			Message: conflict.Message,
			Code:    ErrRuleConflict,
		})
	}
	return errs
}

func validateAnnotations(c *ir.Catalog) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, d := range c.Annotations {
		field := fmt.Sprintf("annotation[%d]", i)
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "name is required", Code: ErrEmptyName})
			continue
		}
		if seen[d.Name] {
			errs = append(errs, ValidationError{
				Field:   "annotation." + d.Name,
				Message: fmt.Sprintf("duplicate annotation name: %q", d.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[d.Name] = true

		var targets []ir.ElementKind
		for _, k := range d.Targets {
			if slices.Contains(targets, k) {
				errs = append(errs, ValidationError{
					Field:   "annotation." + d.Name + ".targets",
					Message: fmt.Sprintf("target %q listed more than once", k),
					Code:    ErrDuplicateTarget,
				})
				continue
			}
			targets = append(targets, k)
		}
	}
	return errs
}

func validateTypes(c *ir.Catalog) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i := range c.Types {
		t := &c.Types[i]
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("type[%d]", i),
				Message: "name is required",
				Code:    ErrEmptyName,
			})
			continue
		}

		prefix := "type." + t.Name
		if seen[t.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix,
				Message: fmt.Sprintf("duplicate type name: %q", t.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[t.Name] = true

		if t.Package != "" && t.Name != t.Package && !strings.HasPrefix(t.Name, t.Package+".") {
			errs = append(errs, ValidationError{
				Field:   prefix + ".package",
				Message: fmt.Sprintf("package %q does not prefix type name %q", t.Package, t.Name),
				Code:    ErrPackageMismatch,
			})
		}

		errs = append(errs, validateElementAnnotations(c, t.Annotations, ir.KindType, prefix)...)

		methods := make(map[string]bool)
		for j, m := range t.Methods {
			field := fmt.Sprintf("%s.methods[%d]", prefix, j)
			if m.Name == "" {
				errs = append(errs, ValidationError{Field: field, Message: "name is required", Code: ErrEmptyName})
				continue
			}
			if methods[m.Name] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".methods." + m.Name,
					Message: fmt.Sprintf("duplicate method name: %q", m.Name),
					Code:    ErrDuplicateName,
				})
			}
			methods[m.Name] = true
			errs = append(errs, validateElementAnnotations(c, m.Annotations, ir.KindMethod, prefix+".methods."+m.Name)...)
		}

		fields := make(map[string]bool)
		for j, f := range t.Fields {
			field := fmt.Sprintf("%s.fields[%d]", prefix, j)
			if f.Name == "" {
				errs = append(errs, ValidationError{Field: field, Message: "name is required", Code: ErrEmptyName})
				continue
			}
			if fields[f.Name] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".fields." + f.Name,
					Message: fmt.Sprintf("duplicate field name: %q", f.Name),
					Code:    ErrDuplicateName,
				})
			}
			fields[f.Name] = true
			errs = append(errs, validateElementAnnotations(c, f.Annotations, ir.KindField, prefix+".fields."+f.Name)...)
		}
	}
	return errs
}

// validateElementAnnotations checks declared annotations against their
// targets. Undeclared annotations are allowed on elements: they are
// markers no binding processes.
func validateElementAnnotations(c *ir.Catalog, anns []ir.Annotation, kind ir.ElementKind, prefix string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, a := range anns {
		field := prefix + ".annotations." + a.Name
		if seen[a.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("annotation %q repeated on the same element", a.Name),
				Code:    ErrDuplicateMemberAnn,
			})
		}
		seen[a.Name] = true

		decl, ok := c.LookupAnnotation(a.Name)
		if !ok {
			continue
		}
		if !slices.Contains(decl.EffectiveTargets(), kind) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("annotation %q does not target %s elements", a.Name, kind),
				Code:    ErrTargetMismatch,
			})
		}
	}
	return errs
}

func validateBindings(c *ir.Catalog) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, b := range c.Bindings {
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("binding[%d]", i),
				Message: "name is required",
				Code:    ErrEmptyName,
			})
			continue
		}

		prefix := "binding." + b.Name
		if seen[b.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix,
				Message: fmt.Sprintf("duplicate binding name: %q", b.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[b.Name] = true

		if _, ok := c.LookupAnnotation(b.Annotation); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".annotation",
				Message: fmt.Sprintf("annotation %q is not declared", b.Annotation),
				Code:    ErrUnknownAnnotation,
			})
		}

		if !handlers.Known(b.Handler) {
			errs = append(errs, ValidationError{
				Field: prefix + ".handler",
				Message: fmt.Sprintf("unknown handler %q (known: %s)",
					b.Handler, strings.Join(handlers.Names(), ", ")),
				Code: ErrUnknownHandler,
			})
		}

		switch {
		case b.Handler == handlers.HandlerProvided && len(b.Types) == 0:
			errs = append(errs, ValidationError{
				Field:   prefix + ".types",
				Message: "provided binding must list at least one type",
				Code:    ErrProvidedTypes,
			})
		case b.Handler != handlers.HandlerProvided && len(b.Types) > 0:
			errs = append(errs, ValidationError{
				Field:   prefix + ".types",
				Message: fmt.Sprintf("types are only allowed on %q bindings", handlers.HandlerProvided),
				Code:    ErrProvidedTypes,
			})
		}
		for j, name := range b.Types {
			if _, ok := c.LookupType(name); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.types[%d]", prefix, j),
					Message: fmt.Sprintf("type %q is not declared", name),
					Code:    ErrUnknownType,
				})
			}
		}

		for j, r := range b.Rules {
			if _, ok := c.LookupAnnotation(r.Annotation); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.rules[%d].annotation", prefix, j),
					Message: fmt.Sprintf("annotation %q is not declared", r.Annotation),
					Code:    ErrUnknownAnnotation,
				})
			}
		}
	}
	return errs
}
