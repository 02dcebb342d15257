package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/exec"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
)

// checkExpect returns one message per failed expectation.
func checkExpect(want Expect, got *Result, tree *plan.Tree) []string {
	var errs []string

	if got.Outcome != want.Outcome {
		errs = append(errs, fmt.Sprintf("outcome: expected %s, got %s", want.Outcome, got.Outcome))
	}
	if want.Error != "" && got.ErrorCode != want.Error {
		errs = append(errs, fmt.Sprintf("error: expected %s, got %q", want.Error, got.ErrorCode))
	}
	if want.Reason != "" && !strings.Contains(got.Reason, want.Reason) {
		errs = append(errs, fmt.Sprintf("reason: expected to contain %q, got %q", want.Reason, got.Reason))
	}

	errs = append(errs, checkNodes(want.Nodes, tree)...)

	if want.Rows != nil && len(got.Rows) != *want.Rows {
		errs = append(errs, fmt.Sprintf("rows: expected %d, got %d", *want.Rows, len(got.Rows)))
	}
	if len(want.IDs) > 0 {
		if msg := checkIDs(want.IDs, got.Rows); msg != "" {
			errs = append(errs, msg)
		}
	}
	if len(want.Events) > 0 {
		if msg := checkEventOrder(want.Events, got); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func checkNodes(want []NodeExpect, tree *plan.Tree) []string {
	if len(want) == 0 {
		return nil
	}
	if tree == nil {
		return []string{fmt.Sprintf("nodes: expected %d, no plan was built", len(want))}
	}
	if tree.Len() != len(want) {
		return []string{fmt.Sprintf("nodes: expected %d, got %d", len(want), tree.Len())}
	}

	var errs []string
	for i, w := range want {
		n := tree.Node(plan.NodeID(i))
		field := func(name string, expected, actual any) {
			errs = append(errs, fmt.Sprintf("node %d %s: expected %v, got %v", i, name, expected, actual))
		}
		if w.Entity != "" && w.Entity != n.EntityType {
			field("entity", w.Entity, n.EntityType)
		}
		if w.Address != "" && w.Address != n.Address {
			field("address", w.Address, n.Address)
		}
		if w.FanOut != "" && w.FanOut != n.FanOut().String() {
			field("fan_out", w.FanOut, n.FanOut())
		}
		for _, flag := range []struct {
			name   string
			want   *bool
			actual bool
		}{
			{"eager_load", w.EagerLoad, n.EagerLoad},
			{"push_order_to_store", w.PushOrderToStore, n.PushOrderToStore},
			{"push_range_to_store", w.PushRangeToStore, n.PushRangeToStore},
			{"order_in_memory", w.OrderInMemory, n.OrderInMemory},
			{"range_in_memory", w.RangeInMemory, n.RangeInMemory},
		} {
			if flag.want != nil && *flag.want != flag.actual {
				field(flag.name, *flag.want, flag.actual)
			}
		}
	}
	return errs
}

func checkIDs(want []any, rows []exec.Row) string {
	if len(want) != len(rows) {
		return fmt.Sprintf("ids: expected %d rows, got %d", len(want), len(rows))
	}
	for i, raw := range want {
		id, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Sprintf("ids[%d]: %v", i, err)
		}
		if !ir.Equal(id, rows[i].Current.ID) {
			return fmt.Sprintf("ids[%d]: expected %s, got %s", i, ir.String(id), ir.String(rows[i].Current.ID))
		}
	}
	return ""
}

// checkEventOrder requires names to appear in order among the emitted
// events. Other events may be interleaved.
func checkEventOrder(names []string, got *Result) string {
	next := 0
	for _, e := range got.Events {
		if next < len(names) && e.Name == names[next] {
			next++
		}
	}
	if next < len(names) {
		return fmt.Sprintf("events: expected %s in order, missing %s from %s",
			strings.Join(names, ", "), names[next], strings.Join(eventNames(got), ", "))
	}
	return ""
}

func eventNames(r *Result) []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Name
	}
	return out
}

// renderRow renders a row for messages and snapshots: the current
// element's key, or the captured value when there is one.
func renderRow(r exec.Row) string {
	switch v := r.Value.(type) {
	case nil:
		return r.Current.Key()
	case []any:
		return renderPath(v)
	case *exec.Tree:
		var b strings.Builder
		renderTree(&b, v.Roots, 0)
		return strings.TrimSuffix(b.String(), "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderPath(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = renderValue(v)
	}
	return strings.Join(parts, " > ")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case exec.Element:
		return val.Key()
	case ir.IRValue:
		return ir.String(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func renderTree(b *strings.Builder, nodes []*exec.TreeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), renderValue(n.Value))
		renderTree(b, n.Children, depth+1)
	}
}
