package handlers

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// Handler names accepted in catalog bindings.
const (
	HandlerRecord   = "record"
	HandlerProvided = "provided"
)

// Factory builds the handler for one binding.
type Factory func(b ir.BindingDecl, c *ir.Catalog, meta *Metadata) (engine.Handler, error)

var factories = map[string]Factory{
	HandlerRecord: func(b ir.BindingDecl, c *ir.Catalog, meta *Metadata) (engine.Handler, error) {
		return NewRecord(b.Name, c, meta), nil
	},
	HandlerProvided: func(b ir.BindingDecl, c *ir.Catalog, meta *Metadata) (engine.Handler, error) {
		types := make([]*ir.TypeDecl, 0, len(b.Types))
		for _, name := range b.Types {
			t, ok := c.LookupType(name)
			if !ok {
				return nil, fmt.Errorf("binding %q: provided type %q is not declared", b.Name, name)
			}
			types = append(types, t)
		}
		return NewProvided(b.Name, c, meta, types), nil
	},
}

// Names returns the known handler names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Known reports whether name is a built-in handler.
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Bind registers every binding of c on p in declaration order.
func Bind(p *engine.Processor, c *ir.Catalog, meta *Metadata) error {
	for _, b := range c.Bindings {
		decl, ok := c.LookupAnnotation(b.Annotation)
		if !ok {
			return fmt.Errorf("binding %q: annotation %q is not declared", b.Name, b.Annotation)
		}
		factory, ok := factories[b.Handler]
		if !ok {
			return fmt.Errorf("binding %q: unknown handler %q", b.Name, b.Handler)
		}
		h, err := factory(b, c, meta)
		if err != nil {
			return err
		}

		p.RegisterNamed(b.Name, decl, h, b.Rules...)
		slog.Debug("registered binding",
			"binding", b.Name,
			"annotation", b.Annotation,
			"handler", b.Handler,
			"rules", len(b.Rules),
		)
	}
	return nil
}
