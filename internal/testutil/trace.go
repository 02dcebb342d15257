package testutil

// FixedTraceGenerator returns the same trace id on every call, so repeated
// compile passes in a scenario produce identical diagnostics.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a generator for id. An empty id becomes
// "test-trace-default".
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed trace id.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
