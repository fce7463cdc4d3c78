package compiler

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/roach88/iocplan/internal/ir"
)

// hclFile is the top-level structure of an HCL catalog file.
type hclFile struct {
	Packages    []string            `hcl:"packages,optional"`
	Annotations []hclAnnotationDecl `hcl:"annotation,block"`
	Types       []hclType           `hcl:"type,block"`
	Bindings    []hclBinding        `hcl:"binding,block"`
}

type hclAnnotationDecl struct {
	Name    string   `hcl:"name,label"`
	Targets []string `hcl:"targets,optional"`
}

type hclType struct {
	Name        string          `hcl:"name,label"`
	Package     string          `hcl:"package,optional"`
	Annotations []hclAnnotation `hcl:"annotation,block"`
	Methods     []hclMethod     `hcl:"method,block"`
	Fields      []hclField      `hcl:"field,block"`
}

// hclAnnotation captures its attributes as a raw body; they are free-form
// and converted through cty.
type hclAnnotation struct {
	Name  string   `hcl:"name,label"`
	Attrs hcl.Body `hcl:",remain"`
}

type hclMethod struct {
	Name        string          `hcl:"name,label"`
	Annotations []hclAnnotation `hcl:"annotation,block"`
}

type hclField struct {
	Name        string          `hcl:"name,label"`
	Type        string          `hcl:"type,optional"`
	Annotations []hclAnnotation `hcl:"annotation,block"`
}

type hclBinding struct {
	Name       string    `hcl:"name,label"`
	Annotation string    `hcl:"annotation"`
	Handler    string    `hcl:"handler,optional"`
	Types      []string  `hcl:"types,optional"`
	Rules      []hclRule `hcl:"rule,block"`
}

type hclRule struct {
	Annotation string `hcl:"annotation"`
	Order      string `hcl:"order"`
}

// CompileHCL compiles an HCL catalog file into IR. filename is used in
// error positions only.
func CompileHCL(src []byte, filename string) (*ir.Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, formatHCLDiagnostics(diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, formatHCLDiagnostics(diags)
	}

	c := &ir.Catalog{Packages: parsed.Packages}

	for _, d := range parsed.Annotations {
		targets, err := parseTargets(d.Targets, "annotation."+d.Name+".targets")
		if err != nil {
			return nil, err
		}
		c.Annotations = append(c.Annotations, ir.AnnotationDecl{Name: d.Name, Targets: targets})
	}

	for _, ht := range parsed.Types {
		t, err := convertHCLType(ht)
		if err != nil {
			return nil, err
		}
		c.Types = append(c.Types, t)
	}

	for _, hb := range parsed.Bindings {
		b := ir.BindingDecl{
			Name:       hb.Name,
			Annotation: hb.Annotation,
			Handler:    hb.Handler,
			Types:      hb.Types,
		}
		if b.Handler == "" {
			b.Handler = DefaultHandler
		}
		for i, hr := range hb.Rules {
			rule, err := buildRule(hr.Annotation, hr.Order, fmt.Sprintf("binding.%s.rules[%d]", hb.Name, i))
			if err != nil {
				return nil, err
			}
			b.Rules = append(b.Rules, rule)
		}
		c.Bindings = append(c.Bindings, b)
	}

	return c, nil
}

func convertHCLType(ht hclType) (ir.TypeDecl, error) {
	prefix := "type." + ht.Name
	t := ir.TypeDecl{Name: ht.Name, Package: ht.Package}
	if t.Package == "" {
		t.Package = ir.PackageOf(ht.Name)
	}

	var err error
	if t.Annotations, err = convertHCLAnnotations(ht.Annotations, prefix); err != nil {
		return t, err
	}
	for _, hm := range ht.Methods {
		m := ir.MethodDecl{Name: hm.Name}
		if m.Annotations, err = convertHCLAnnotations(hm.Annotations, prefix+".methods."+hm.Name); err != nil {
			return t, err
		}
		t.Methods = append(t.Methods, m)
	}
	for _, hf := range ht.Fields {
		f := ir.FieldDecl{Name: hf.Name, Type: hf.Type}
		if f.Annotations, err = convertHCLAnnotations(hf.Annotations, prefix+".fields."+hf.Name); err != nil {
			return t, err
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func convertHCLAnnotations(hanns []hclAnnotation, prefix string) ([]ir.Annotation, error) {
	var anns []ir.Annotation
	for _, ha := range hanns {
		field := prefix + ".annotations." + ha.Name
		attrs, diags := ha.Attrs.JustAttributes()
		if diags.HasErrors() {
			return nil, formatHCLDiagnostics(diags)
		}

		// Sorted so that a failing attribute is reported deterministically.
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		slices.Sort(names)

		var obj ir.Object
		for _, name := range names {
			attr := attrs[name]
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, formatHCLDiagnostics(diags)
			}
			conv, err := ctyToValue(val)
			if err != nil {
				rng := attr.Range
				return nil, &CompileError{Field: field + "." + name, Message: err.Error(), Range: &rng}
			}
			if obj == nil {
				obj = ir.Object{}
			}
			obj[name] = conv
		}
		anns = append(anns, ir.Annotation{Name: ha.Name, Attrs: obj})
	}
	return anns, nil
}
