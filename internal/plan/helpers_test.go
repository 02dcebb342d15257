package plan

import (
	"fmt"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// fakeResolver serves a fixed schema and counts table lookups.
type fakeResolver struct {
	tables  map[string][]string
	columns map[string][]string
	links   map[string]map[string]string
	lookups int
}

func (f *fakeResolver) Tables(entity string) ([]string, error) {
	f.lookups++
	tables, ok := f.tables[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
	return tables, nil
}

func (f *fakeResolver) Column(entity, key string) (string, bool) {
	if key == "id" {
		return "id", true
	}
	for _, c := range f.columns[entity] {
		if c == key {
			return c, true
		}
	}
	return "", false
}

func (f *fakeResolver) LinkTarget(entity, link string) (string, error) {
	target, ok := f.links[entity][link]
	if !ok {
		return "", fmt.Errorf("entity %q has no link %q", entity, link)
	}
	return target, nil
}

func singleTablePerson() *fakeResolver {
	return &fakeResolver{
		tables: map[string][]string{
			"Person":  {"person"},
			"Address": {"address_home", "address_work"},
		},
		columns: map[string][]string{
			"Person":  {"name", "age", "city"},
			"Address": {"street", "person_id"},
		},
		links: map[string]map[string]string{
			"Person": {"address": "Address"},
		},
	}
}

func multiTablePerson() *fakeResolver {
	r := singleTablePerson()
	r.tables["Person"] = []string{"person_a", "person_b"}
	return r
}

func scenarioOps() []traversal.Operation {
	return []traversal.Operation{
		traversal.Scan{EntityType: "Person"},
		traversal.Filter{Predicate: traversal.Compare{Key: "age", Op: traversal.OpGt, Value: ir.IRInt(30)}},
		traversal.Filter{Predicate: traversal.Compare{Key: "city", Op: traversal.OpEq, Value: ir.IRString("NYC")}},
		traversal.Order{Keys: []traversal.OrderKey{{Key: "name", Direction: traversal.Asc}}},
		traversal.Range{Offset: 0, Limit: 10},
	}
}
