package engine

import "github.com/roach88/iocplan/internal/ir"

// InjectionContext records which types were added during execution and the
// injector for each. One context is created per processing run and shared
// by reference with every action. Only Action.Execute mutates it.
type InjectionContext struct {
	injectors map[string]*Injector
	order     []string
}

// NewInjectionContext returns an empty context.
func NewInjectionContext() *InjectionContext {
	return &InjectionContext{injectors: make(map[string]*Injector)}
}

// Injector accumulates what handlers decided about one type.
type Injector struct {
	// Type is the canonical type name.
	Type string

	// Order is the position at which the type was added, starting at 0.
	Order int

	// Handled lists the annotations whose handlers acted on the type, in
	// execution order.
	Handled []string

	// Props holds handler-defined properties.
	Props ir.Object
}

// AddType marks t as added and creates its injector. Returns false when the
// type was already added.
func (c *InjectionContext) AddType(t *ir.TypeDecl) bool {
	if _, ok := c.injectors[t.Name]; ok {
		return false
	}
	c.injectors[t.Name] = &Injector{
		Type:  t.Name,
		Order: len(c.order),
		Props: ir.Object{},
	}
	c.order = append(c.order, t.Name)
	return true
}

// IsAdded reports whether the named type was added.
func (c *InjectionContext) IsAdded(typeName string) bool {
	_, ok := c.injectors[typeName]
	return ok
}

// Injector returns the injector of an added type.
func (c *InjectionContext) Injector(typeName string) (*Injector, bool) {
	inj, ok := c.injectors[typeName]
	return inj, ok
}

// Types returns added type names in the order they were added.
func (c *InjectionContext) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
