package plan

import (
	"fmt"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// Resolver maps entity types onto the relational schema.
type Resolver interface {
	// Tables returns the tables holding rows of entity. One table means
	// single-query fan-out.
	Tables(entity string) ([]string, error)

	// Column resolves a property key to a physical column.
	Column(entity, key string) (string, bool)

	// LinkTarget returns the entity type reached by following link from
	// entity.
	LinkTarget(entity, link string) (string, error)
}

// ResolveFanOut computes the node's fan-out once and memoizes it together
// with the resolved tables.
func (t *Tree) ResolveFanOut(id NodeID, r Resolver) (FanOut, error) {
	n := t.Node(id)
	if n.fanOut != FanOutUnknown {
		return n.fanOut, nil
	}
	tables, err := r.Tables(n.EntityType)
	if err != nil {
		return FanOutUnknown, &CompileError{
			Code:     ErrCodeUnknownEntity,
			Message:  fmt.Sprintf("entity %q: %v", n.EntityType, err),
			Position: n.Position,
		}
	}
	if len(tables) == 0 {
		return FanOutUnknown, &CompileError{
			Code:     ErrCodeUnknownEntity,
			Message:  fmt.Sprintf("entity %q has no tables", n.EntityType),
			Position: n.Position,
		}
	}
	n.tables = append([]string(nil), tables...)
	if len(tables) == 1 {
		n.fanOut = SingleQuery
	} else {
		n.fanOut = MultiQuery
	}
	return n.fanOut, nil
}

// Finalize decides what the node pushes to the store and what it applies
// in memory. It panics when the tree is not complete.
//
// Order goes to the store only for single-query nodes whose keys are all
// plain columns; otherwise the node is eagerly loaded and sorted in memory.
// Range follows order into memory when the node is eager, is pushed for
// single-query nodes, and is applied in memory for multi-query nodes.
func Finalize(t *Tree, id NodeID, r Resolver) error {
	t.requireComplete("finalize")
	n := t.Node(id)
	if n.finalized {
		return nil
	}

	if n.Parent != NoParent {
		parent := t.Node(n.Parent)
		target, err := r.LinkTarget(parent.EntityType, n.Via)
		if err != nil {
			return &CompileError{Code: ErrCodeInvalidLink, Message: err.Error(), Position: n.Position}
		}
		if target != n.EntityType {
			return &CompileError{
				Code:     ErrCodeInvalidLink,
				Message:  fmt.Sprintf("link %q from %q reaches %q, not %q", n.Via, parent.EntityType, target, n.EntityType),
				Position: n.Position,
			}
		}
	}

	fanOut, err := t.ResolveFanOut(id, r)
	if err != nil {
		return err
	}

	if len(n.OrderKeys) > 0 {
		columns, pushable := storeOrder(n, r)
		if fanOut == SingleQuery && pushable {
			n.PushOrderToStore = true
			n.StoreOrder = columns
		} else {
			n.EagerLoad = true
			n.OrderInMemory = true
		}
	}

	if n.Range != nil {
		switch {
		case n.EagerLoad:
			n.RangeInMemory = true
		case fanOut == SingleQuery:
			n.PushRangeToStore = true
			rng := *n.Range
			n.StoreRange = &rng
		default:
			n.RangeInMemory = true
		}
	}

	if n.PushRangeToStore && n.EagerLoad {
		panic(fmt.Sprintf("plan: node %d both pushes range and loads eagerly", id))
	}
	n.finalized = true
	return nil
}

// FinalizeAll finalizes every node in build order.
func FinalizeAll(t *Tree, r Resolver) error {
	for _, id := range t.IDs() {
		if err := Finalize(t, id, r); err != nil {
			return err
		}
	}
	return nil
}

// storeOrder resolves the node's order keys to columns. It reports false
// when any key is computed or names no column.
func storeOrder(n *Node, r Resolver) ([]OrderColumn, bool) {
	columns := make([]OrderColumn, 0, len(n.OrderKeys))
	for _, k := range n.OrderKeys {
		if !k.IsPlainColumn() {
			return nil, false
		}
		col, ok := r.Column(n.EntityType, k.Key)
		if !ok {
			return nil, false
		}
		dir := k.Direction
		if dir == "" {
			dir = traversal.Asc
		}
		columns = append(columns, OrderColumn{Column: col, Direction: dir})
	}
	return columns, true
}
