package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/iocplan/internal/graph"
	"github.com/roach88/iocplan/internal/ir"
)

// Entry is a registered (annotation, handler) binding. Immutable after
// registration.
type Entry struct {
	// Name identifies the binding in logs and plans. Defaults to the
	// annotation name.
	Name       string
	Annotation ir.AnnotationDecl
	Handler    Handler
	Rules      []ir.Rule

	// Seq is the registration sequence number, unique within a processor.
	Seq int
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s[@%s #%d]", e.Name, e.Annotation.Name, e.Seq)
}

// Registry holds entries in registration order.
type Registry struct {
	entries []*Entry
	nextSeq int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an entry for annotation handled by h and returns it.
func (r *Registry) Register(annotation ir.AnnotationDecl, h Handler, rules ...ir.Rule) *Entry {
	return r.RegisterNamed(annotation.Name, annotation, h, rules...)
}

// RegisterNamed is Register with an explicit binding name.
func (r *Registry) RegisterNamed(name string, annotation ir.AnnotationDecl, h Handler, rules ...ir.Rule) *Entry {
	e := &Entry{
		Name:       name,
		Annotation: annotation,
		Handler:    h,
		Rules:      slices.Clone(rules),
		Seq:        r.nextSeq,
	}
	r.nextSeq++
	r.entries = append(r.entries, e)
	return e
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns entries in registration order.
func (r *Registry) Entries() []*Entry {
	return slices.Clone(r.entries)
}

// Ordered returns entries in processing order. See OrderEntries.
func (r *Registry) Ordered() ([]*Entry, error) {
	return OrderEntries(r.entries)
}

// ruleOrder reports the order forced by rules alone: negative when a must
// precede b, positive when a must follow b, zero when no rule applies.
// a's own rules take precedence over b's.
func ruleOrder(a, b *Entry) int {
	for _, rule := range a.Rules {
		if rule.Annotation == b.Annotation.Name {
			if rule.Order == ir.Before {
				return -1
			}
			return 1
		}
	}
	for _, rule := range b.Rules {
		if rule.Annotation == a.Annotation.Name {
			if rule.Order == ir.Before {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Compare orders two entries. A rule on a naming b's annotation decides
// first, then a rule on b naming a's annotation (inverted). Without an
// applicable rule the earlier registration comes first. Compare returns 0
// only for the same entry.
func Compare(a, b *Entry) int {
	if a == b {
		return 0
	}
	if c := ruleOrder(a, b); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// OrderEntries returns entries in a stable topological order of the rule
// constraints: an entry is released once every entry its rules place ahead
// of it has been released, and among released candidates the lowest Seq
// wins. Contradictory rules fail with a RULE_CONFLICT RuntimeError.
//
// Rules are not transitive with plain sequence order, so sorting with
// Compare alone would not be well defined.
func OrderEntries(entries []*Entry) ([]*Entry, error) {
	bySeq := slices.Clone(entries)
	slices.SortFunc(bySeq, func(a, b *Entry) int { return cmp.Compare(a.Seq, b.Seq) })

	g := graph.New()
	for _, e := range bySeq {
		var deps []graph.Key
		for _, other := range bySeq {
			if other != e && ruleOrder(other, e) < 0 {
				deps = append(deps, entryKey(other))
			}
		}
		g.Add(entryKey(e), e, deps...)
	}

	units, err := g.Sort()
	if err != nil {
		return nil, NewRuleConflictError(err)
	}

	out := make([]*Entry, 0, len(units))
	for _, u := range units {
		out = append(out, u.Items[0].(*Entry))
	}
	return out, nil
}

func entryKey(e *Entry) graph.Key {
	return graph.Key(e.String())
}

// detached creates an entry with a fresh sequence number that is not kept
// in the registry. Used for bindings added during discovery.
func (r *Registry) detached(annotation ir.AnnotationDecl, h Handler) *Entry {
	e := &Entry{
		Name:       annotation.Name,
		Annotation: annotation,
		Handler:    h,
		Seq:        r.nextSeq,
	}
	r.nextSeq++
	return e
}
