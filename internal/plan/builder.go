package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// Builder turns windows into nodes of a tree.
type Builder struct {
	tree *Tree
}

// NewBuilder returns a builder adding nodes to tree.
func NewBuilder(tree *Tree) *Builder {
	return &Builder{tree: tree}
}

// Tree returns the tree being built.
func (b *Builder) Tree() *Tree {
	return b.tree
}

// Build validates w and adds it as a node under parent, or as the root when
// parent is NoParent. Validation happens before the tree is touched, so a
// failed Build leaves the tree as it was.
func (b *Builder) Build(w Window, parent NodeID, address string) (NodeID, error) {
	if err := CheckIDs(w.Scan.IDs, w.Start); err != nil {
		return NoParent, err
	}
	for _, label := range w.Labels {
		if strings.Contains(label, ReservedLabelMarker) {
			return NoParent, &CompileError{
				Code:     ErrCodeReservedLabel,
				Message:  fmt.Sprintf("label %q contains reserved marker %q", label, ReservedLabelMarker),
				Position: w.Start,
			}
		}
	}

	n := Node{
		Parent:          parent,
		Position:        w.Start,
		Address:         address,
		EntityType:      w.Scan.EntityType,
		Via:             w.Scan.Via,
		IDs:             append([]ir.IRValue(nil), w.Scan.IDs...),
		Filters:         append([]traversal.Predicate(nil), w.Filters...),
		OrderKeys:       append([]traversal.OrderKey(nil), w.OrderKeys...),
		Labels:          append([]string(nil), w.Labels...),
		PrecedesCapture: w.PrecedesCapture,
	}
	if w.Range != nil {
		r := *w.Range
		n.Range = &r
	}
	return b.tree.add(n), nil
}

// CheckIDs fails with ErrCodeIDTypeMismatch unless every id has the same
// concrete kind.
func CheckIDs(ids []ir.IRValue, position int) error {
	if len(ids) == 0 {
		return nil
	}
	want := ir.KindOf(ids[0])
	for i, id := range ids[1:] {
		if got := ir.KindOf(id); got != want {
			return &CompileError{
				Code:     ErrCodeIDTypeMismatch,
				Message:  fmt.Sprintf("id %d is %s, id 0 is %s", i+1, got, want),
				Position: position,
			}
		}
	}
	return nil
}
