package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sqlgraph/internal/ir"
)

// snapshotNodeKeys are the plan fields kept in a golden snapshot.
var snapshotNodeKeys = []string{
	"address",
	"entity",
	"fan_out",
	"eager_load",
	"push_order_to_store",
	"push_range_to_store",
	"order_in_memory",
	"range_in_memory",
}

// Snapshot renders a result as a canonical IRObject for golden comparison.
func Snapshot(name string, r *Result) ir.IRObject {
	events := make(ir.IRArray, len(r.Events))
	for i, e := range r.Events {
		events[i] = ir.IRString(e.Name)
	}
	rows := make(ir.IRArray, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = ir.IRString(renderRow(row))
	}

	snap := ir.IRObject{
		"name":      ir.IRString(name),
		"outcome":   ir.IRString(r.Outcome),
		"traversal": ir.IRString(r.Traversal),
		"events":    events,
		"rows":      rows,
	}
	if r.TraceID != "" {
		snap["trace_id"] = ir.IRString(r.TraceID)
	}
	if r.Reason != "" {
		snap["reason"] = ir.IRString(r.Reason)
	}
	if r.ErrorCode != "" {
		snap["error"] = ir.IRString(r.ErrorCode)
	}
	if r.Explanation != nil {
		snap["nodes"] = summarizeNodes(r.Explanation.Plan)
	}
	return snap
}

func summarizeNodes(desc ir.IRObject) ir.IRArray {
	nodes, _ := desc["nodes"].(ir.IRArray)
	out := make(ir.IRArray, 0, len(nodes))
	for _, n := range nodes {
		node, ok := n.(ir.IRObject)
		if !ok {
			continue
		}
		summary := make(ir.IRObject, len(snapshotNodeKeys))
		for _, k := range snapshotNodeKeys {
			if v, ok := node[k]; ok {
				summary[k] = v
			}
		}
		out = append(out, summary)
	}
	return out
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
