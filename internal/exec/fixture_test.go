package exec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/store"
	"github.com/roach88/sqlgraph/internal/topology"
	"github.com/roach88/sqlgraph/internal/traversal"
)

const fixtureTopology = `
entity: Person: {
	tables: ["person"]
	columns: { name: string, age: int, city: string }
	links: address: { entity: "Address", column: "person_id" }
}
entity: Employee: {
	tables: ["staff_a", "staff_b"]
	columns: { name: string, age: int, city: string }
	links: address: { entity: "Address", column: "person_id" }
}
entity: Address: {
	tables: ["address_home", "address_work"]
	columns: { street: string, person_id: int }
}
`

func person(id int64, name string, age int64, city string) ir.IRObject {
	return ir.IRObject{"id": ir.IRInt(id), "name": ir.IRString(name), "age": ir.IRInt(age), "city": ir.IRString(city)}
}

func address(id int64, street string, owner int64) ir.IRObject {
	return ir.IRObject{"id": ir.IRInt(id), "street": ir.IRString(street), "person_id": ir.IRInt(owner)}
}

type fixture struct {
	store     *store.Store
	topo      *topology.Topology
	collector *diag.Collector
	exec      *Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	topo, err := topology.Parse(fixtureTopology)
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "exec.db"), topo)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	seed := map[string][]ir.IRObject{
		"person": {
			person(1, "dana", 45, "NYC"),
			person(2, "ann", 31, "NYC"),
			person(3, "carl", 29, "NYC"),
			person(4, "bea", 52, "LA"),
			person(5, "ann", 38, "NYC"),
			{"id": ir.IRInt(6), "name": ir.IRString("eve")},
		},
		"staff_a": {
			person(1, "zed", 40, "NYC"),
			person(2, "amy", 33, "NYC"),
			person(3, "max", 61, "NYC"),
		},
		"staff_b": {
			person(1, "amy", 35, "NYC"),
			person(2, "bob", 30, "LA"),
			person(3, "kim", 44, "NYC"),
		},
		"address_home": {
			address(10, "Oak", 1),
			address(11, "Elm", 2),
			address(12, "Ash", 1),
		},
		"address_work": {
			address(20, "Main", 1),
			address(21, "Pine", 5),
		},
	}
	for _, table := range []string{"person", "staff_a", "staff_b", "address_home", "address_work"} {
		for _, row := range seed[table] {
			require.NoError(t, st.Insert(ctx, table, row))
		}
	}

	collector := diag.NewCollector(nil)
	return &fixture{store: st, topo: topo, collector: collector, exec: New(st, WithCollector(collector))}
}

// compiled returns a copy of p with every compiled window substituted.
func (f *fixture) compiled(t *testing.T, p *traversal.Pipeline) (*traversal.Pipeline, *plan.Compilation) {
	t.Helper()
	cp := p.Clone()
	c, err := plan.Compile(cp, f.topo)
	require.NoError(t, err)
	for i := len(c.Sites) - 1; i >= 0; i-- {
		s := c.Sites[i]
		s.Pipeline.Splice(s.Start, s.Consumed, plan.Compiled{Tree: c.Tree, Node: s.Node})
	}
	return cp, c
}

func (f *fixture) run(t *testing.T, p *traversal.Pipeline) []Row {
	t.Helper()
	rows, err := f.exec.Run(context.Background(), p)
	require.NoError(t, err)
	return rows
}

// comparable strips the internal path so compiled and interpreted rows can
// be compared.
func comparable(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Current: r.Current, Value: r.Value}
	}
	return out
}

func ids(rows []Row) []ir.IRValue {
	out := make([]ir.IRValue, len(rows))
	for i, r := range rows {
		out[i] = r.Current.ID
	}
	return out
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = ir.String(r.Current.Value("name"))
	}
	return out
}
