package engine

import (
	"fmt"

	"github.com/roach88/iocplan/internal/ir"
)

// fakeScanner serves elements from a fixed list of types and records every
// query it receives.
type fakeScanner struct {
	types []*ir.TypeDecl
	calls []string
}

func newFakeScanner(types ...*ir.TypeDecl) *fakeScanner {
	return &fakeScanner{types: types}
}

func (s *fakeScanner) TypesWith(annotation string, packages []string) []ir.TypeElement {
	s.calls = append(s.calls, "type:"+annotation)
	var out []ir.TypeElement
	for _, t := range s.types {
		if ir.InScope(t.Package, packages) && t.HasAnnotation(annotation) {
			out = append(out, ir.TypeElement{Type: t})
		}
	}
	return out
}

func (s *fakeScanner) MethodsWith(annotation string, packages []string) []ir.MethodElement {
	s.calls = append(s.calls, "method:"+annotation)
	var out []ir.MethodElement
	for _, t := range s.types {
		if !ir.InScope(t.Package, packages) {
			continue
		}
		for i := range t.Methods {
			for _, a := range t.Methods[i].Annotations {
				if a.Name == annotation {
					out = append(out, ir.MethodElement{Declaring: t, Method: &t.Methods[i]})
				}
			}
		}
	}
	return out
}

func (s *fakeScanner) FieldsWith(annotation string, packages []string) []ir.FieldElement {
	s.calls = append(s.calls, "field:"+annotation)
	var out []ir.FieldElement
	for _, t := range s.types {
		if !ir.InScope(t.Package, packages) {
			continue
		}
		for i := range t.Fields {
			for _, a := range t.Fields[i].Annotations {
				if a.Name == annotation {
					out = append(out, ir.FieldElement{Declaring: t, Field: &t.Fields[i]})
				}
			}
		}
	}
	return out
}

// recordingHandler logs every hook call into a shared journal.
type recordingHandler struct {
	journal *[]string

	deps       map[string][]string
	masquerade map[string]string
	suppress   map[string]bool
	failOn     map[string]Phase
	onDeps     func(ctrl DependencyControl, inst *Instance)
}

func newRecordingHandler(journal *[]string) *recordingHandler {
	return &recordingHandler{
		journal:    journal,
		deps:       map[string][]string{},
		masquerade: map[string]string{},
		suppress:   map[string]bool{},
		failOn:     map[string]Phase{},
	}
}

func (h *recordingHandler) log(hook string, inst *Instance) {
	*h.journal = append(*h.journal, fmt.Sprintf("%s:%s@%s", hook, inst.Element.Name(), inst.Annotation.Name))
}

func (h *recordingHandler) fail(phase Phase, inst *Instance) error {
	if p, ok := h.failOn[inst.Element.Name()]; ok && p == phase {
		return fmt.Errorf("boom in %s", phase)
	}
	return nil
}

func (h *recordingHandler) RegisterMetadata(inst *Instance) error {
	h.log("register", inst)
	return h.fail(PhaseRegisterMetadata, inst)
}

func (h *recordingHandler) CheckDependencies(ctrl DependencyControl, inst *Instance) ([]string, error) {
	h.log("deps", inst)
	if m, ok := h.masquerade[inst.Element.Name()]; ok {
		ctrl.MasqueradeAs(m)
	}
	if h.onDeps != nil {
		h.onDeps(ctrl, inst)
	}
	if err := h.fail(PhaseCheckDependencies, inst); err != nil {
		return nil, err
	}
	return h.deps[inst.Element.Name()], nil
}

func (h *recordingHandler) Handle(inst *Instance) (bool, error) {
	h.log("handle", inst)
	if err := h.fail(PhaseHandle, inst); err != nil {
		return false, err
	}
	return !h.suppress[inst.Element.Name()], nil
}

// recordingProvided is a recordingHandler that supplies its own types.
type recordingProvided struct {
	*recordingHandler
	types []*ir.TypeDecl
}

func (p *recordingProvided) ProvidedTypes() []*ir.TypeDecl { return p.types }

func typeDecl(name string, annotations ...string) *ir.TypeDecl {
	t := &ir.TypeDecl{Name: name, Package: ir.PackageOf(name)}
	for _, a := range annotations {
		t.Annotations = append(t.Annotations, ir.Annotation{Name: a})
	}
	return t
}

func typeOnly(name string) ir.AnnotationDecl {
	return ir.AnnotationDecl{Name: name, Targets: []ir.ElementKind{ir.KindType}}
}

func handledKeys(res *Result) []string {
	var out []string
	for _, r := range res.Records {
		out = append(out, r.Unit)
	}
	return out
}
