package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/sqlgraph/internal/topology"
)

const testTopology = `
entity: Person: {
	tables: ["person"]
	columns: { name: string, age: int, active: bool }
	links: address: { entity: "Address", column: "person_id" }
}
entity: Address: {
	tables: ["address_home", "address_work"]
	columns: { street: string, person_id: int }
}
entity: Tag: {
	id: string
	tables: ["tag"]
	columns: { label: string }
}
`

func parseTestTopology(t *testing.T) *topology.Topology {
	t.Helper()
	topo, err := topology.Parse(testTopology)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return topo
}

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, parseTestTopology(t), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
