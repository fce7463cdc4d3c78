package handlers

import (
	"errors"
	"fmt"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// Attribute names understood by the record handler.
const (
	AttrDependsOn  = "depends_on"
	AttrMasquerade = "masquerade"
	AttrAdds       = "adds"
	AttrSuppress   = "suppress"
	AttrFail       = "fail"
)

// Injector property names set by the record handler.
const (
	PropHandledBy = "handled_by"
)

// ErrHandlerFailed is wrapped by the error a "fail" attribute produces.
var ErrHandlerFailed = errors.New("handler failed")

// Record is the attribute-driven handler.
type Record struct {
	binding string
	catalog *ir.Catalog
	meta    *Metadata
}

// NewRecord returns a record handler for the named binding. catalog
// resolves annotations and types named by "adds".
func NewRecord(binding string, catalog *ir.Catalog, meta *Metadata) *Record {
	return &Record{binding: binding, catalog: catalog, meta: meta}
}

// RegisterMetadata records the call.
func (r *Record) RegisterMetadata(inst *engine.Instance) error {
	r.meta.add(r.binding, inst)
	return nil
}

// CheckDependencies applies masquerade and adds, then returns depends_on.
func (r *Record) CheckDependencies(ctrl engine.DependencyControl, inst *engine.Instance) ([]string, error) {
	attrs := inst.Annotation.Attrs

	if m, ok := attrs.GetString(AttrMasquerade); ok && m != "" {
		ctrl.MasqueradeAs(m)
	}

	adds, err := attrs.GetObjects(AttrAdds)
	if err != nil {
		return nil, err
	}
	for i, add := range adds {
		annName, _ := add.GetString("annotation")
		typeName, _ := add.GetString("type")
		if annName == "" || typeName == "" {
			return nil, fmt.Errorf("%s[%d]: annotation and type are required", AttrAdds, i)
		}
		ctrl.AddBinding(r.annotation(annName), r.typeDecl(typeName))
	}

	return attrs.GetStrings(AttrDependsOn)
}

// Handle records the binding on the injector. Returns false when the
// annotation sets suppress.
func (r *Record) Handle(inst *engine.Instance) (bool, error) {
	attrs := inst.Annotation.Attrs

	if msg, ok := attrs.GetString(AttrFail); ok {
		return false, fmt.Errorf("%w: %s", ErrHandlerFailed, msg)
	}

	suppress, err := attrs.GetBool(AttrSuppress)
	if err != nil {
		return false, err
	}
	if suppress {
		return false, nil
	}

	props := inst.Injector.Props
	handledBy, _ := props[PropHandledBy].(ir.List)
	props[PropHandledBy] = append(handledBy, ir.String(r.binding))
	if len(attrs) > 0 {
		props[inst.Annotation.Name] = attrs
	} else {
		props[inst.Annotation.Name] = ir.Bool(true)
	}
	return true, nil
}

func (r *Record) annotation(name string) ir.AnnotationDecl {
	if decl, ok := r.catalog.LookupAnnotation(name); ok {
		return decl
	}
	return ir.AnnotationDecl{Name: name}
}

func (r *Record) typeDecl(name string) *ir.TypeDecl {
	if t, ok := r.catalog.LookupType(name); ok {
		return t
	}
	return &ir.TypeDecl{Name: name, Package: ir.PackageOf(name)}
}

// Provided is the record handler over a fixed set of types.
type Provided struct {
	*Record
	types []*ir.TypeDecl
}

// NewProvided returns a provided handler for types.
func NewProvided(binding string, catalog *ir.Catalog, meta *Metadata, types []*ir.TypeDecl) *Provided {
	return &Provided{Record: NewRecord(binding, catalog, meta), types: types}
}

// ProvidedTypes implements engine.ProvidedHandler.
func (p *Provided) ProvidedTypes() []*ir.TypeDecl {
	return p.types
}
