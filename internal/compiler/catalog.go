package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/iocplan/internal/ir"
)

// DefaultHandler is used by bindings that name no handler.
const DefaultHandler = "record"

// CompileCatalog compiles a CUE catalog value into IR.
//
// The value is the root of a catalog package:
//
//	packages: ["org.acme"]
//	annotation: Singleton: targets: ["type"]
//	type: "org.acme.Repo": annotations: Singleton: {}
//	binding: singletons: {annotation: "Singleton", handler: "record"}
//
// Declaration order is preserved for annotations, types, members and
// bindings.
func CompileCatalog(v cue.Value) (*ir.Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	packages, err := parseStringList(v.LookupPath(cue.ParsePath("packages")), "packages")
	if err != nil {
		return nil, err
	}
	annotations, err := parseAnnotationDecls(v)
	if err != nil {
		return nil, err
	}
	types, err := parseTypes(v)
	if err != nil {
		return nil, err
	}
	bindings, err := parseBindings(v)
	if err != nil {
		return nil, err
	}

	return &ir.Catalog{
		Packages:    packages,
		Annotations: annotations,
		Types:       types,
		Bindings:    bindings,
	}, nil
}

func parseAnnotationDecls(v cue.Value) ([]ir.AnnotationDecl, error) {
	declVal := v.LookupPath(cue.ParsePath("annotation"))
	if !declVal.Exists() {
		return nil, nil
	}

	iter, err := declVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []ir.AnnotationDecl
	for iter.Next() {
		name := fieldLabel(iter)
		field := "annotation." + name + ".targets"
		names, err := parseStringList(iter.Value().LookupPath(cue.ParsePath("targets")), field)
		if err != nil {
			return nil, err
		}
		targets, err := parseTargets(names, field)
		if err != nil {
			return nil, err
		}
		decls = append(decls, ir.AnnotationDecl{Name: name, Targets: targets})
	}
	return decls, nil
}

func parseTargets(names []string, field string) ([]ir.ElementKind, error) {
	var targets []ir.ElementKind
	for _, n := range names {
		k, err := ir.ParseElementKind(n)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error()}
		}
		targets = append(targets, k)
	}
	return targets, nil
}

func parseTypes(v cue.Value) ([]ir.TypeDecl, error) {
	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return nil, nil
	}

	iter, err := typeVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []ir.TypeDecl
	for iter.Next() {
		name := fieldLabel(iter)
		t, err := parseType(name, iter.Value())
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func parseType(name string, v cue.Value) (ir.TypeDecl, error) {
	prefix := "type." + name
	t := ir.TypeDecl{Name: name, Package: ir.PackageOf(name)}

	pkg, err := optionalString(v, "package")
	if err != nil {
		return t, err
	}
	if pkg != "" {
		t.Package = pkg
	}

	if t.Annotations, err = parseAnnotations(v, prefix); err != nil {
		return t, err
	}

	if methodsVal := v.LookupPath(cue.ParsePath("methods")); methodsVal.Exists() {
		iter, err := methodsVal.Fields()
		if err != nil {
			return t, formatCUEError(err)
		}
		for iter.Next() {
			m := ir.MethodDecl{Name: fieldLabel(iter)}
			m.Annotations, err = parseAnnotations(iter.Value(), prefix+".methods."+m.Name)
			if err != nil {
				return t, err
			}
			t.Methods = append(t.Methods, m)
		}
	}

	if fieldsVal := v.LookupPath(cue.ParsePath("fields")); fieldsVal.Exists() {
		iter, err := fieldsVal.Fields()
		if err != nil {
			return t, formatCUEError(err)
		}
		for iter.Next() {
			f := ir.FieldDecl{Name: fieldLabel(iter)}
			if f.Type, err = optionalString(iter.Value(), "type"); err != nil {
				return t, err
			}
			f.Annotations, err = parseAnnotations(iter.Value(), prefix+".fields."+f.Name)
			if err != nil {
				return t, err
			}
			t.Fields = append(t.Fields, f)
		}
	}

	return t, nil
}

// parseAnnotations reads the "annotations" struct of an element. Each field
// is an annotation name mapped to its attribute struct.
func parseAnnotations(v cue.Value, prefix string) ([]ir.Annotation, error) {
	annVal := v.LookupPath(cue.ParsePath("annotations"))
	if !annVal.Exists() {
		return nil, nil
	}

	iter, err := annVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var anns []ir.Annotation
	for iter.Next() {
		name := fieldLabel(iter)
		attrs, err := cueToValue(iter.Value(), prefix+".annotations."+name)
		if err != nil {
			return nil, err
		}
		obj, ok := attrs.(ir.Object)
		if !ok {
			return nil, &CompileError{
				Field:   prefix + ".annotations." + name,
				Message: "annotation attributes must be a struct",
				Pos:     iter.Value().Pos(),
			}
		}
		if len(obj) == 0 {
			obj = nil
		}
		anns = append(anns, ir.Annotation{Name: name, Attrs: obj})
	}
	return anns, nil
}

func parseBindings(v cue.Value) ([]ir.BindingDecl, error) {
	bindingVal := v.LookupPath(cue.ParsePath("binding"))
	if !bindingVal.Exists() {
		return nil, nil
	}

	iter, err := bindingVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var bindings []ir.BindingDecl
	for iter.Next() {
		b, err := parseBinding(fieldLabel(iter), iter.Value())
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func parseBinding(name string, v cue.Value) (ir.BindingDecl, error) {
	prefix := "binding." + name
	b := ir.BindingDecl{Name: name}

	annVal := v.LookupPath(cue.ParsePath("annotation"))
	if !annVal.Exists() {
		return b, &CompileError{
			Field:   prefix + ".annotation",
			Message: "annotation is required",
			Pos:     v.Pos(),
		}
	}
	ann, err := annVal.String()
	if err != nil {
		return b, formatCUEError(err)
	}
	b.Annotation = ann

	if b.Handler, err = optionalString(v, "handler"); err != nil {
		return b, err
	}
	if b.Handler == "" {
		b.Handler = DefaultHandler
	}

	if b.Types, err = parseStringList(v.LookupPath(cue.ParsePath("types")), prefix+".types"); err != nil {
		return b, err
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return b, nil
	}
	list, err := rulesVal.List()
	if err != nil {
		return b, formatCUEError(err)
	}
	for i := 0; list.Next(); i++ {
		field := fmt.Sprintf("%s.rules[%d]", prefix, i)
		ruleAnn, err := optionalString(list.Value(), "annotation")
		if err != nil {
			return b, err
		}
		orderStr, err := optionalString(list.Value(), "order")
		if err != nil {
			return b, err
		}
		rule, err := buildRule(ruleAnn, orderStr, field)
		if err != nil {
			return b, err
		}
		b.Rules = append(b.Rules, rule)
	}
	return b, nil
}

// buildRule is shared by the CUE and HCL front ends.
func buildRule(annotation, order, field string) (ir.Rule, error) {
	if annotation == "" {
		return ir.Rule{}, &CompileError{Field: field + ".annotation", Message: "annotation is required"}
	}
	o, err := ir.ParseOrder(order)
	if err != nil {
		return ir.Rule{}, &CompileError{Field: field + ".order", Message: err.Error()}
	}
	return ir.Rule{Annotation: annotation, Order: o}, nil
}

// parseStringList accepts a list of strings or a single string. A missing
// value yields nil.
func parseStringList(v cue.Value, field string) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	if v.IncompleteKind() == cue.StringKind {
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return []string{s}, nil
	}

	list, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "expected a list of strings", Pos: v.Pos()}
	}
	var out []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	f := v.LookupPath(cue.MakePath(cue.Str(label)))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// fieldLabel returns the unquoted label so that quoted names such as
// "org.acme.Repo" come back without quotes.
func fieldLabel(iter *cue.Iterator) string {
	if sel := iter.Selector(); sel.IsString() {
		return sel.Unquoted()
	}
	return iter.Label()
}
