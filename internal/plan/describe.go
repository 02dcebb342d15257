package plan

import (
	"github.com/roach88/sqlgraph/internal/ir"
)

// Describe renders the tree as an IRObject suitable for canonical encoding.
// Absent values are omitted rather than encoded as null.
func (t *Tree) Describe() ir.IRObject {
	nodes := make(ir.IRArray, 0, len(t.nodes))
	for i := range t.nodes {
		nodes = append(nodes, t.nodes[i].Describe())
	}
	return ir.IRObject{"nodes": nodes}
}

// Describe renders one node.
func (n *Node) Describe() ir.IRObject {
	obj := ir.IRObject{
		"id":                  ir.IRInt(n.ID),
		"parent":              ir.IRInt(n.Parent),
		"address":             ir.IRString(n.Address),
		"entity":              ir.IRString(n.EntityType),
		"filters":             predicateStrings(n),
		"order":               orderStrings(n),
		"labels":              stringArray(n.Labels),
		"carried_labels":      stringArray(n.CarriedLabels),
		"fan_out":             ir.IRString(n.fanOut.String()),
		"tables":              stringArray(n.tables),
		"eager_load":          ir.IRBool(n.EagerLoad),
		"push_order_to_store": ir.IRBool(n.PushOrderToStore),
		"push_range_to_store": ir.IRBool(n.PushRangeToStore),
		"order_in_memory":     ir.IRBool(n.OrderInMemory),
		"range_in_memory":     ir.IRBool(n.RangeInMemory),
	}
	if n.Via != "" {
		obj["via"] = ir.IRString(n.Via)
	}
	if len(n.IDs) > 0 {
		obj["ids"] = ir.IRArray(append([]ir.IRValue(nil), n.IDs...))
	}
	if n.Range != nil {
		obj["range"] = ir.IRObject{
			"offset": ir.IRInt(n.Range.Offset),
			"limit":  ir.IRInt(n.Range.Limit),
		}
	}
	if len(n.StoreOrder) > 0 {
		cols := make(ir.IRArray, len(n.StoreOrder))
		for i, c := range n.StoreOrder {
			cols[i] = ir.IRString(c.Column + " " + string(c.Direction))
		}
		obj["store_order"] = cols
	}
	return obj
}

func predicateStrings(n *Node) ir.IRArray {
	out := make(ir.IRArray, len(n.Filters))
	for i, p := range n.Filters {
		out[i] = ir.IRString(p.String())
	}
	return out
}

func orderStrings(n *Node) ir.IRArray {
	out := make(ir.IRArray, len(n.OrderKeys))
	for i, k := range n.OrderKeys {
		name := k.Key
		if !k.IsPlainColumn() {
			name = k.Func + "(" + k.Key + ")"
		}
		dir := string(k.Direction)
		if dir == "" {
			dir = "asc"
		}
		out[i] = ir.IRString(name + " " + dir)
	}
	return out
}

func stringArray(list []string) ir.IRArray {
	out := make(ir.IRArray, len(list))
	for i, s := range list {
		out[i] = ir.IRString(s)
	}
	return out
}
