package engine

import "github.com/roach88/iocplan/internal/ir"

// ProcessingContext carries the scan scope and the test-mode flag.
type ProcessingContext struct {
	// Packages limits scanning. Empty means every package is in scope.
	Packages []string

	// TestMode enables processing of test-only and test-mock types.
	TestMode bool
}

// Instance is what a handler sees for one annotated element.
//
// Injection and Injector are only set while Handle runs (and while a
// deferred field RegisterMetadata runs at execute time).
type Instance struct {
	Element    ir.Element
	Annotation ir.Annotation
	Context    *ProcessingContext
	Injection  *InjectionContext
	Injector   *Injector
}

// Handler processes one annotation.
//
// RegisterMetadata runs once per discovered element: at discovery for types
// and methods, at execute time for fields. CheckDependencies runs once at
// discovery and returns the canonical type names the element depends on.
// Handle runs once at execute time; returning false means the handler chose
// not to act, which is not an error.
type Handler interface {
	RegisterMetadata(inst *Instance) error
	CheckDependencies(ctrl DependencyControl, inst *Instance) ([]string, error)
	Handle(inst *Instance) (bool, error)
}

// ProvidedHandler supplies its own types for the TYPE kind instead of
// having the scanner search for them. It produces nothing for methods or
// fields.
type ProvidedHandler interface {
	Handler
	ProvidedTypes() []*ir.TypeDecl
}

// BaseHandler provides no-op hooks. Embed it and override what you need.
type BaseHandler struct{}

// RegisterMetadata does nothing.
func (BaseHandler) RegisterMetadata(*Instance) error { return nil }

// CheckDependencies reports no dependencies.
func (BaseHandler) CheckDependencies(DependencyControl, *Instance) ([]string, error) {
	return nil, nil
}

// Handle reports the element as handled.
func (BaseHandler) Handle(*Instance) (bool, error) { return true, nil }

// providedTypes is the handler behind DependencyControl.AddBinding: it
// contributes types and never acts on them.
type providedTypes struct {
	BaseHandler
	types []*ir.TypeDecl
}

func (p *providedTypes) ProvidedTypes() []*ir.TypeDecl { return p.types }

// Handle declines every element, so executing a provided type counts as
// suppressed.
func (p *providedTypes) Handle(*Instance) (bool, error) { return false, nil }

// NewProvidedHandler returns a ProvidedHandler for types. Metadata and
// dependency hooks do nothing and Handle reports the element as not
// handled. The types still become work units and are added to the
// injection context at execute time.
func NewProvidedHandler(types ...*ir.TypeDecl) ProvidedHandler {
	return &providedTypes{types: types}
}
