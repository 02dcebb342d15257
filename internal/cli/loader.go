package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/store"
	"github.com/roach88/sqlgraph/internal/topology"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// loadTopology loads the topology directory, reporting failures through f.
func loadTopology(f *OutputFormatter, dir string) (*topology.Topology, error) {
	topo, err := topology.Load(dir)
	if err != nil {
		code := ErrCodeGeneric
		exit := ExitFailure
		var le *topology.LoadError
		if errors.As(err, &le) {
			code = le.Code
			if le.Code == topology.ErrCodeNotFound {
				exit = ExitCommandError
			}
		}
		return nil, f.Fail(exit, code, err.Error(), err)
	}
	f.VerboseLog("Loaded topology from %s: %d entities", dir, len(topo.EntityNames()))
	return topo, nil
}

func loadTraversal(f *OutputFormatter, path string) (*traversal.Pipeline, error) {
	p, err := traversal.LoadFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeTraversal, fmt.Sprintf("invalid traversal %s: %v", path, err), err)
	}
	return p, nil
}

func openStore(f *OutputFormatter, path string, topo *topology.Topology, opts ...store.Option) (*store.Store, error) {
	st, err := store.Open(path, topo, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database %s: %v", path, err), err)
	}
	return st, nil
}

// compileFailure reports a compile error under its plan code when it has
// one.
func compileFailure(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var ce *plan.CompileError
	if errors.As(err, &ce) {
		code = string(ce.Code)
	}
	return f.Fail(ExitFailure, code, err.Error(), err)
}

// DataFile maps physical table names to the rows to insert:
//
//	person:
//	  - {id: 1, name: ann, age: 31}
//	address_home:
//	  - {id: 10, street: Oak, person_id: 1}
type DataFile map[string][]map[string]any

// loadDataFile reads a data file and converts its rows, checking every
// table against the topology.
func loadDataFile(path string, topo *topology.Topology) (map[string][]ir.IRObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var file DataFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	known := make(map[string]bool)
	for _, t := range topo.PhysicalTables() {
		known[t.Name] = true
	}

	out := make(map[string][]ir.IRObject, len(file))
	for table, rows := range file {
		if !known[table] {
			return nil, fmt.Errorf("table %q is not declared by the topology", table)
		}
		for i, raw := range rows {
			v, err := ir.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", table, i, err)
			}
			out[table] = append(out[table], v.(ir.IRObject))
		}
	}
	return out, nil
}
