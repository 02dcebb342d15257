package strategy

import (
	"sync"

	"github.com/google/uuid"
)

// TraceGenerator produces the id that tags one compile pass in logs and
// diagnostic events.
type TraceGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trace ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns predetermined trace ids in order. It panics
// once they run out.
type SequenceGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewSequenceGenerator creates a generator that returns ids in order.
func NewSequenceGenerator(ids ...string) *SequenceGenerator {
	return &SequenceGenerator{ids: ids}
}

func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("SequenceGenerator: all trace ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
