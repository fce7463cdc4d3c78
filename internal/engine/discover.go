package engine

import (
	"errors"
	"log/slog"

	"github.com/roach88/iocplan/internal/graph"
	"github.com/roach88/iocplan/internal/ir"
)

// Scanner finds annotated elements within the given packages. Results must
// come back in a stable order; the catalog scanner uses declaration order.
type Scanner interface {
	TypesWith(annotation string, packages []string) []ir.TypeElement
	MethodsWith(annotation string, packages []string) []ir.MethodElement
	FieldsWith(annotation string, packages []string) []ir.FieldElement
}

// DependencyControl is handed to CheckDependencies.
type DependencyControl interface {
	// MasqueradeAs sets the identity the element's unit is merged and
	// ordered as. Defaults to the owning type.
	MasqueradeAs(typeName string)

	// AddBinding schedules typ for processing under annotation with a
	// no-op provided handler. The work runs in the next discovery batch.
	// Repeated calls for the same pair are ignored.
	AddBinding(annotation ir.AnnotationDecl, typ *ir.TypeDecl)
}

// Discovery is the outcome of the discovery loop.
type Discovery struct {
	// Graph holds one unit per masquerade identity.
	Graph *graph.Graph

	// Entries lists every entry processed, in processing order, including
	// entries added through AddBinding.
	Entries []*Entry

	// Batches is the number of batches drained.
	Batches int

	// Skipped counts test-only elements left out because test mode is off.
	Skipped int
}

type discovery struct {
	p       *Processor
	out     *Discovery
	added   map[string]bool
	pending []*Entry
}

// Discover runs the discovery loop to a fixed point and returns the merged
// unit graph. Nothing executes.
func (p *Processor) Discover() (*Discovery, error) {
	ordered, err := p.registry.Ordered()
	if err != nil {
		return nil, err
	}

	d := &discovery{
		p:     p,
		out:   &Discovery{Graph: graph.New()},
		added: make(map[string]bool),
	}

	queue := newBatchQueue()
	queue.Enqueue(batch{entries: ordered})
	quota := NewQuotaEnforcer(p.maxBatches)

	for {
		b, ok := queue.TryDequeue()
		if !ok {
			break
		}
		if err := quota.Check(); err != nil {
			var be *BatchesExceededError
			errors.As(err, &be)
			return nil, NewQuotaError(be)
		}

		slog.Debug("processing batch",
			"batch", quota.Current(),
			"entries", len(b.entries),
		)

		for _, e := range b.entries {
			d.out.Entries = append(d.out.Entries, e)
			if err := d.processEntry(e); err != nil {
				return nil, err
			}
		}

		queue.Enqueue(batch{entries: d.pending})
		d.pending = nil
	}

	d.out.Batches = quota.Current()
	slog.Info("discovery complete",
		"batches", d.out.Batches,
		"units", d.out.Graph.Len(),
		"skipped", d.out.Skipped,
	)
	return d.out, nil
}

func (d *discovery) processEntry(e *Entry) error {
	provided, isProvided := e.Handler.(ProvidedHandler)
	name := e.Annotation.Name
	packages := d.p.pctx.Packages

	for _, kind := range e.Annotation.EffectiveTargets() {
		switch kind {
		case ir.KindType:
			var elems []ir.TypeElement
			if isProvided {
				for _, t := range provided.ProvidedTypes() {
					elems = append(elems, ir.TypeElement{Type: t})
				}
			} else {
				elems = d.p.scanner.TypesWith(name, packages)
			}
			for _, el := range elems {
				if err := d.processElement(e, el); err != nil {
					return err
				}
			}

		case ir.KindMethod:
			if isProvided {
				continue
			}
			for _, el := range d.p.scanner.MethodsWith(name, packages) {
				if err := d.processElement(e, el); err != nil {
					return err
				}
			}

		case ir.KindField:
			if isProvided {
				continue
			}
			for _, el := range d.p.scanner.FieldsWith(name, packages) {
				if err := d.processElement(e, el); err != nil {
					return err
				}
			}

		case ir.KindConstructor:
			// Accepted target, no work.
		}
	}
	return nil
}

func (d *discovery) processElement(e *Entry, el ir.Element) error {
	owner := el.Owner()
	if owner.IsTestOnly() && !d.p.pctx.TestMode {
		slog.Debug("skipping test-only element",
			"element", el.Name(),
			"annotation", e.Annotation.Name,
		)
		d.out.Skipped++
		return nil
	}

	ann, ok := el.Annotation(e.Annotation.Name)
	if !ok {
		// Provided types need not carry the annotation themselves.
		ann = ir.Annotation{Name: e.Annotation.Name}
	}

	inst := &Instance{
		Element:    el,
		Annotation: ann,
		Context:    &d.p.pctx,
	}

	if el.Kind() != ir.KindField {
		if err := e.Handler.RegisterMetadata(inst); err != nil {
			return &HandlerError{Phase: PhaseRegisterMetadata, Element: el.Name(), Annotation: ann.Name, Err: err}
		}
	}

	ctrl := &dependencyControl{d: d, masquerade: owner.Name}
	deps, err := e.Handler.CheckDependencies(ctrl, inst)
	if err != nil {
		return &HandlerError{Phase: PhaseCheckDependencies, Element: el.Name(), Annotation: ann.Name, Err: err}
	}

	action := &Action{
		Element:    el,
		Annotation: ann,
		Entry:      e,
		key:        graph.Key(ctrl.masquerade),
		deps:       make([]graph.Key, 0, len(deps)),
		pctx:       &d.p.pctx,
		injection:  d.p.injection,
	}
	for _, dep := range deps {
		action.deps = append(action.deps, graph.Key(dep))
	}

	d.out.Graph.Add(action.key, action, action.deps...)

	slog.Debug("discovered element",
		"element", el.Name(),
		"kind", el.Kind().String(),
		"annotation", ann.Name,
		"unit", string(action.key),
		"dependencies", len(action.deps),
	)
	return nil
}

type dependencyControl struct {
	d          *discovery
	masquerade string
}

func (c *dependencyControl) MasqueradeAs(typeName string) {
	c.masquerade = typeName
}

func (c *dependencyControl) AddBinding(annotation ir.AnnotationDecl, typ *ir.TypeDecl) {
	key := annotation.Name + "\x00" + typ.Name
	if c.d.added[key] {
		return
	}
	c.d.added[key] = true

	e := c.d.p.registry.detached(annotation, NewProvidedHandler(typ))
	c.d.pending = append(c.d.pending, e)

	slog.Debug("binding added during discovery",
		"annotation", annotation.Name,
		"type", typ.Name,
	)
}
