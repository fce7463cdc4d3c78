package testutil

import "github.com/roach88/iocplan/internal/ir"

// CatalogBuilder assembles ir.Catalog values for tests.
//
//	c := testutil.NewCatalog("org.acme").
//		Annotation("Bean", ir.KindType).
//		Type("org.acme.Repo", "Bean").
//		Binding("beans", "Bean", "record").
//		Build()
type CatalogBuilder struct {
	c ir.Catalog
}

// NewCatalog starts a catalog scoped to packages.
func NewCatalog(packages ...string) *CatalogBuilder {
	return &CatalogBuilder{c: ir.Catalog{Packages: packages}}
}

// Annotation declares an annotation with optional targets.
func (b *CatalogBuilder) Annotation(name string, targets ...ir.ElementKind) *CatalogBuilder {
	b.c.Annotations = append(b.c.Annotations, ir.AnnotationDecl{Name: name, Targets: targets})
	return b
}

// Type adds a type carrying attribute-less annotations.
func (b *CatalogBuilder) Type(name string, annotations ...string) *CatalogBuilder {
	t := ir.TypeDecl{Name: name, Package: ir.PackageOf(name)}
	for _, a := range annotations {
		t.Annotations = append(t.Annotations, ir.Annotation{Name: a})
	}
	b.c.Types = append(b.c.Types, t)
	return b
}

// TypeAnnotation adds an annotation with attributes to the most recently
// added type.
func (b *CatalogBuilder) TypeAnnotation(name string, attrs ir.Object) *CatalogBuilder {
	t := b.last()
	t.Annotations = append(t.Annotations, ir.Annotation{Name: name, Attrs: attrs})
	return b
}

// Method adds an annotated method to the most recently added type.
func (b *CatalogBuilder) Method(name string, annotations ...string) *CatalogBuilder {
	t := b.last()
	m := ir.MethodDecl{Name: name}
	for _, a := range annotations {
		m.Annotations = append(m.Annotations, ir.Annotation{Name: a})
	}
	t.Methods = append(t.Methods, m)
	return b
}

// Field adds an annotated field to the most recently added type.
func (b *CatalogBuilder) Field(name, typ string, annotations ...string) *CatalogBuilder {
	t := b.last()
	f := ir.FieldDecl{Name: name, Type: typ}
	for _, a := range annotations {
		f.Annotations = append(f.Annotations, ir.Annotation{Name: a})
	}
	t.Fields = append(t.Fields, f)
	return b
}

// Binding adds a binding with optional rules.
func (b *CatalogBuilder) Binding(name, annotation, handler string, rules ...ir.Rule) *CatalogBuilder {
	b.c.Bindings = append(b.c.Bindings, ir.BindingDecl{
		Name:       name,
		Annotation: annotation,
		Handler:    handler,
		Rules:      rules,
	})
	return b
}

// Provided adds a "provided" binding for the named types.
func (b *CatalogBuilder) Provided(name, annotation string, types ...string) *CatalogBuilder {
	b.c.Bindings = append(b.c.Bindings, ir.BindingDecl{
		Name:       name,
		Annotation: annotation,
		Handler:    "provided",
		Types:      types,
	})
	return b
}

// Build returns the catalog. The builder must not be reused.
func (b *CatalogBuilder) Build() *ir.Catalog {
	return &b.c
}

func (b *CatalogBuilder) last() *ir.TypeDecl {
	if len(b.c.Types) == 0 {
		panic("CatalogBuilder: no type added yet")
	}
	return &b.c.Types[len(b.c.Types)-1]
}
