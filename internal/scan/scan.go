// Package scan finds annotated elements in a compiled catalog.
//
// CatalogScanner implements engine.Scanner. Results follow catalog
// declaration order: types in the order declared, and for each type its
// methods or fields in the order declared.
package scan

import (
	"github.com/roach88/iocplan/internal/ir"
)

// CatalogScanner answers element queries from an in-memory catalog.
type CatalogScanner struct {
	catalog *ir.Catalog
}

// New returns a scanner over c. The catalog must not be modified while
// the scanner is in use.
func New(c *ir.Catalog) *CatalogScanner {
	return &CatalogScanner{catalog: c}
}

// TypesWith returns in-scope types carrying annotation.
func (s *CatalogScanner) TypesWith(annotation string, packages []string) []ir.TypeElement {
	var out []ir.TypeElement
	s.each(packages, func(t *ir.TypeDecl) {
		if t.HasAnnotation(annotation) {
			out = append(out, ir.TypeElement{Type: t})
		}
	})
	return out
}

// MethodsWith returns methods of in-scope types carrying annotation.
func (s *CatalogScanner) MethodsWith(annotation string, packages []string) []ir.MethodElement {
	var out []ir.MethodElement
	s.each(packages, func(t *ir.TypeDecl) {
		for i := range t.Methods {
			if hasAnnotation(t.Methods[i].Annotations, annotation) {
				out = append(out, ir.MethodElement{Declaring: t, Method: &t.Methods[i]})
			}
		}
	})
	return out
}

// FieldsWith returns fields of in-scope types carrying annotation.
func (s *CatalogScanner) FieldsWith(annotation string, packages []string) []ir.FieldElement {
	var out []ir.FieldElement
	s.each(packages, func(t *ir.TypeDecl) {
		for i := range t.Fields {
			if hasAnnotation(t.Fields[i].Annotations, annotation) {
				out = append(out, ir.FieldElement{Declaring: t, Field: &t.Fields[i]})
			}
		}
	})
	return out
}

func (s *CatalogScanner) each(packages []string, fn func(*ir.TypeDecl)) {
	for i := range s.catalog.Types {
		t := &s.catalog.Types[i]
		if ir.InScope(t.Package, packages) {
			fn(t)
		}
	}
}

func hasAnnotation(anns []ir.Annotation, name string) bool {
	for _, a := range anns {
		if a.Name == name {
			return true
		}
	}
	return false
}
