package handlers

import "github.com/roach88/iocplan/internal/engine"

// MetadataEntry is one RegisterMetadata call.
type MetadataEntry struct {
	Element    string `json:"element"`
	Annotation string `json:"annotation"`
	Binding    string `json:"binding"`
}

// Metadata collects RegisterMetadata calls in the order they happen.
// Shared by every handler created through one Bind call.
type Metadata struct {
	entries []MetadataEntry
}

// NewMetadata returns an empty collector.
func NewMetadata() *Metadata {
	return &Metadata{}
}

func (m *Metadata) add(binding string, inst *engine.Instance) {
	m.entries = append(m.entries, MetadataEntry{
		Element:    inst.Element.Name(),
		Annotation: inst.Annotation.Name,
		Binding:    binding,
	})
}

// Entries returns the calls recorded so far.
func (m *Metadata) Entries() []MetadataEntry {
	out := make([]MetadataEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
