package plan

import (
	"fmt"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// NodeID addresses a node inside its Tree's arena.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// FanOut describes how many physical tables serve an entity type.
type FanOut int

const (
	// FanOutUnknown means fan-out has not been computed yet.
	FanOutUnknown FanOut = iota
	// SingleQuery means one table holds every row of the entity.
	SingleQuery
	// MultiQuery means rows are the union of several tables.
	MultiQuery
)

func (f FanOut) String() string {
	switch f {
	case SingleQuery:
		return "single-query"
	case MultiQuery:
		return "multi-query"
	default:
		return "unknown"
	}
}

// OrderColumn is an order key resolved to a physical column.
type OrderColumn struct {
	Column    string
	Direction traversal.Direction
}

// Node is one compiled window.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID

	// Position is the index of the window's scan in its pipeline and
	// Address locates that pipeline inside the traversal.
	Position int
	Address  string

	EntityType string
	Via        string
	IDs        []ir.IRValue
	Filters    []traversal.Predicate
	OrderKeys  []traversal.OrderKey
	Range      *traversal.Range

	// Labels are visible to downstream operations. CarriedLabels is set on
	// leaves and names every label whose element the leaf's rows keep.
	Labels        []string
	CarriedLabels []string

	// PrecedesCapture is set when a path or tree capture follows the window.
	PrecedesCapture bool

	EagerLoad        bool
	PushOrderToStore bool
	PushRangeToStore bool
	OrderInMemory    bool
	RangeInMemory    bool

	// StoreOrder and StoreRange are what the statement builder renders.
	StoreOrder []OrderColumn
	StoreRange *traversal.Range

	fanOut    FanOut
	tables    []string
	finalized bool
}

// HasIDFilter reports whether the node restricts rows to explicit ids.
func (n *Node) HasIDFilter() bool {
	return len(n.IDs) > 0
}

// Finalized reports whether Finalize has run on the node.
func (n *Node) Finalized() bool {
	return n.finalized
}

// Tables returns the tables resolved during finalization.
func (n *Node) Tables() []string {
	return append([]string(nil), n.tables...)
}

// FanOut returns the memoized fan-out, or FanOutUnknown before Finalize.
func (n *Node) FanOut() FanOut {
	return n.fanOut
}

// Tree is an arena of plan nodes. The first node added is the root.
type Tree struct {
	nodes    []Node
	complete bool
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with id. The pointer is invalidated by add.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("plan: node %d out of range [0,%d)", id, len(t.nodes)))
	}
	return &t.nodes[id]
}

// Root returns the root node id, or false for an empty tree.
func (t *Tree) Root() (NodeID, bool) {
	if len(t.nodes) == 0 {
		return NoParent, false
	}
	return 0, true
}

// Children returns the ids of a node's children in build order.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.Node(id).Children...)
}

// Leaves returns every node without children, in id order.
func (t *Tree) Leaves() []NodeID {
	var leaves []NodeID
	for i := range t.nodes {
		if len(t.nodes[i].Children) == 0 {
			leaves = append(leaves, NodeID(i))
		}
	}
	return leaves
}

// Ancestry returns the path from the root down to id, inclusive.
func (t *Tree) Ancestry(id NodeID) []NodeID {
	var chain []NodeID
	for cur := id; cur != NoParent; cur = t.Node(cur).Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IDs returns every node id in build order.
func (t *Tree) IDs() []NodeID {
	ids := make([]NodeID, len(t.nodes))
	for i := range t.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// MarkComplete records that no more nodes will be added. Labels and
// finalization require a complete tree.
func (t *Tree) MarkComplete() {
	t.complete = true
}

// Complete reports whether MarkComplete has been called.
func (t *Tree) Complete() bool {
	return t.complete
}

func (t *Tree) add(n Node) NodeID {
	if t.complete {
		panic("plan: add to a complete tree")
	}
	id := NodeID(len(t.nodes))
	n.ID = id
	if n.Parent == NoParent {
		if len(t.nodes) > 0 {
			panic("plan: tree already has a root")
		}
	} else {
		parent := t.Node(n.Parent)
		parent.Children = append(parent.Children, id)
	}
	t.nodes = append(t.nodes, n)
	return id
}
