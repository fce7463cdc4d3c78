package ir

// Element is a sealed variant over the program elements an annotation can
// sit on: TypeElement, MethodElement and FieldElement.
type Element interface {
	Kind() ElementKind
	// Owner is the declaring type. For a TypeElement it is the type itself.
	Owner() *TypeDecl
	// Name is a display name unique within a catalog.
	Name() string
	// Annotation returns the named annotation on the element itself.
	Annotation(name string) (Annotation, bool)

	element()
}

// TypeElement is an annotated type.
type TypeElement struct {
	Type *TypeDecl
}

func (TypeElement) element() {}

func (e TypeElement) Kind() ElementKind { return KindType }

func (e TypeElement) Owner() *TypeDecl { return e.Type }

func (e TypeElement) Name() string { return e.Type.Name }

func (e TypeElement) Annotation(name string) (Annotation, bool) {
	return e.Type.Annotation(name)
}

// MethodElement is an annotated method and its declaring type.
type MethodElement struct {
	Declaring *TypeDecl
	Method    *MethodDecl
}

func (MethodElement) element() {}

func (e MethodElement) Kind() ElementKind { return KindMethod }

func (e MethodElement) Owner() *TypeDecl { return e.Declaring }

func (e MethodElement) Name() string { return e.Declaring.Name + "#" + e.Method.Name + "()" }

func (e MethodElement) Annotation(name string) (Annotation, bool) {
	return findAnnotation(e.Method.Annotations, name)
}

// FieldElement is an annotated field and its declaring type.
type FieldElement struct {
	Declaring *TypeDecl
	Field     *FieldDecl
}

func (FieldElement) element() {}

func (e FieldElement) Kind() ElementKind { return KindField }

func (e FieldElement) Owner() *TypeDecl { return e.Declaring }

func (e FieldElement) Name() string { return e.Declaring.Name + "." + e.Field.Name }

func (e FieldElement) Annotation(name string) (Annotation, bool) {
	return findAnnotation(e.Field.Annotations, name)
}
