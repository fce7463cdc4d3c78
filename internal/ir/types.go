package ir

import (
	"fmt"
	"slices"
	"strings"
)

// ElementKind identifies the kind of program element an annotation targets.
type ElementKind int

const (
	// KindType is a type declaration.
	KindType ElementKind = iota + 1
	// KindConstructor is accepted as a target but never produces work.
	KindConstructor
	// KindField is a field of a type.
	KindField
	// KindMethod is a method of a type.
	KindMethod
)

var kindNames = map[ElementKind]string{
	KindType:        "type",
	KindConstructor: "constructor",
	KindField:       "field",
	KindMethod:      "method",
}

func (k ElementKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseElementKind parses "type", "constructor", "field" or "method".
func ParseElementKind(s string) (ElementKind, error) {
	for k, name := range kindNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown element kind %q: must be one of type, constructor, field, method", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k ElementKind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid element kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ElementKind) UnmarshalText(text []byte) error {
	parsed, err := ParseElementKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

var defaultTargets = []ElementKind{KindType, KindConstructor, KindField, KindMethod}

// DefaultTargets returns the targets of annotations that declare none.
func DefaultTargets() []ElementKind {
	return slices.Clone(defaultTargets)
}

// Marker annotations that exclude a type from processing outside test mode.
const (
	TestOnlyAnnotation = "TestOnly"
	TestMockAnnotation = "TestMock"
)

// AnnotationDecl declares an annotation type and the element kinds it may sit on.
type AnnotationDecl struct {
	Name    string        `json:"name"`
	Targets []ElementKind `json:"targets,omitempty"`
}

// EffectiveTargets returns the declared targets with repeats removed, or
// DefaultTargets when none were declared. Each kind appears once, in first
// declared order. The result is a fresh slice.
func (d AnnotationDecl) EffectiveTargets() []ElementKind {
	if len(d.Targets) == 0 {
		return DefaultTargets()
	}
	out := make([]ElementKind, 0, len(d.Targets))
	for _, k := range d.Targets {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// Annotation is an annotation instance attached to an element.
type Annotation struct {
	Name  string `json:"name"`
	Attrs Object `json:"attrs,omitempty"`
}

// TypeDecl is a type in the program model.
type TypeDecl struct {
	Name        string       `json:"name"` // canonical dotted name, e.g. "org.acme.Repo"
	Package     string       `json:"package"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Methods     []MethodDecl `json:"methods,omitempty"`
	Fields      []FieldDecl  `json:"fields,omitempty"`
}

// Annotation returns the first annotation with the given name.
func (t *TypeDecl) Annotation(name string) (Annotation, bool) {
	return findAnnotation(t.Annotations, name)
}

// HasAnnotation reports whether the type carries the named annotation.
func (t *TypeDecl) HasAnnotation(name string) bool {
	_, ok := t.Annotation(name)
	return ok
}

// IsTestOnly reports whether the type carries a test-only or test-mock marker.
func (t *TypeDecl) IsTestOnly() bool {
	return t.HasAnnotation(TestOnlyAnnotation) || t.HasAnnotation(TestMockAnnotation)
}

// MethodDecl is a method of a type.
type MethodDecl struct {
	Name        string       `json:"name"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// FieldDecl is a field of a type. Type names the field's declared type.
type FieldDecl struct {
	Name        string       `json:"name"`
	Type        string       `json:"type,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

func findAnnotation(anns []Annotation, name string) (Annotation, bool) {
	for _, a := range anns {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// PackageOf returns the package portion of a canonical type name.
// "org.acme.Repo" yields "org.acme"; an undotted name yields "".
func PackageOf(typeName string) string {
	i := strings.LastIndex(typeName, ".")
	if i < 0 {
		return ""
	}
	return typeName[:i]
}

// InScope reports whether pkg equals one of packages or is nested beneath
// one of them. An empty packages list puts every package in scope.
func InScope(pkg string, packages []string) bool {
	if len(packages) == 0 {
		return true
	}
	for _, p := range packages {
		if pkg == p || strings.HasPrefix(pkg, p+".") {
			return true
		}
	}
	return false
}

// BindingDecl binds an annotation to a named handler.
// Types is only meaningful for the "provided" handler.
type BindingDecl struct {
	Name       string   `json:"name"`
	Annotation string   `json:"annotation"`
	Handler    string   `json:"handler"`
	Rules      []Rule   `json:"rules,omitempty"`
	Types      []string `json:"types,omitempty"`
}

// Catalog is a compiled program model plus its processing bindings.
type Catalog struct {
	Packages    []string         `json:"packages,omitempty"`
	Annotations []AnnotationDecl `json:"annotations"`
	Types       []TypeDecl       `json:"types"`
	Bindings    []BindingDecl    `json:"bindings"`
}

// LookupType returns the type with the given canonical name.
func (c *Catalog) LookupType(name string) (*TypeDecl, bool) {
	for i := range c.Types {
		if c.Types[i].Name == name {
			return &c.Types[i], true
		}
	}
	return nil, false
}

// LookupAnnotation returns the declaration for the named annotation.
func (c *Catalog) LookupAnnotation(name string) (AnnotationDecl, bool) {
	for _, d := range c.Annotations {
		if d.Name == name {
			return d, true
		}
	}
	return AnnotationDecl{}, false
}
