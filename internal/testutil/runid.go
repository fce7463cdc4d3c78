package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// Scenario runs use it so the same scenario produces byte-identical
// results and golden snapshots.
//
// Unlike engine.FixedGenerator, which hands out IDs in sequence, this
// generator never runs out.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a fixed run ID generator.
//
// The ID is typically set in the scenario YAML:
//
//	run_id: "00000000-0000-7000-8000-000000000001"
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID. Implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
