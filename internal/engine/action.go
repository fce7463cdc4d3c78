package engine

import (
	"slices"

	"github.com/roach88/iocplan/internal/graph"
	"github.com/roach88/iocplan/internal/ir"
)

// Action is the deferred processing of one annotated element. Its identity
// is the canonical name of the owning type; Key is the unit it merged into.
type Action struct {
	Element    ir.Element
	Annotation ir.Annotation
	Entry      *Entry

	key       graph.Key
	deps      []graph.Key
	pctx      *ProcessingContext
	injection *InjectionContext
}

// Key returns the masquerade identity of the action's unit.
func (a *Action) Key() graph.Key {
	return a.key
}

// Dependencies returns the unit keys this action depends on. The keys are
// computed once at discovery; every call returns the same list.
func (a *Action) Dependencies() []graph.Key {
	return slices.Clone(a.deps)
}

// String returns the canonical name of the owning type.
func (a *Action) String() string {
	return a.Element.Owner().Name
}

// Execute adds the owning type to the injection context and runs the
// handler. Field metadata is registered here rather than at discovery.
// Returns false when the handler chose not to act.
func (a *Action) Execute() (bool, error) {
	owner := a.Element.Owner()
	a.injection.AddType(owner)
	injector, _ := a.injection.Injector(owner.Name)

	inst := &Instance{
		Element:    a.Element,
		Annotation: a.Annotation,
		Context:    a.pctx,
		Injection:  a.injection,
		Injector:   injector,
	}

	if a.Element.Kind() == ir.KindField {
		if err := a.Entry.Handler.RegisterMetadata(inst); err != nil {
			return false, a.fail(PhaseRegisterMetadata, err)
		}
	}

	handled, err := a.Entry.Handler.Handle(inst)
	if err != nil {
		return false, a.fail(PhaseHandle, err)
	}
	if handled {
		injector.Handled = append(injector.Handled, a.Annotation.Name)
	}
	return handled, nil
}

func (a *Action) fail(phase Phase, err error) *HandlerError {
	return &HandlerError{
		Phase:      phase,
		Element:    a.Element.Name(),
		Annotation: a.Annotation.Name,
		Err:        err,
	}
}
