package plan

import (
	"fmt"
	"strconv"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// Site is a window of some pipeline that compiled into Node.
type Site struct {
	Pipeline *traversal.Pipeline
	Start    int
	Consumed int
	Node     NodeID
}

// Compilation is the result of compiling one traversal. The pipeline is
// untouched; Sites say where Compiled operations should be substituted.
type Compilation struct {
	Tree  *Tree
	Sites []Site
}

// Compile builds, labels, and finalizes the plan tree for p, whose first
// operation must be a root scan. Each branch arm that starts with a linked
// scan right after a compiled window becomes a child node.
func Compile(p *traversal.Pipeline, r Resolver) (*Compilation, error) {
	if p.Len() == 0 {
		panic("plan: compile empty pipeline")
	}
	if _, ok := p.At(0).(traversal.Scan); !ok {
		panic(fmt.Sprintf("plan: compile pipeline starting with %s", p.At(0).Kind()))
	}

	c := &Compilation{Tree: NewTree()}
	b := NewBuilder(c.Tree)
	if err := c.build(b, p, 0, NoParent, ""); err != nil {
		return nil, err
	}

	c.Tree.MarkComplete()
	c.Tree.AssignPathLabels()
	c.Tree.PropagateLabels()
	if err := FinalizeAll(c.Tree, r); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compilation) build(b *Builder, p *traversal.Pipeline, pos int, parent NodeID, prefix string) error {
	cur := p.Cursor(pos)
	w := CollectWindow(cur)
	id, err := b.Build(w, parent, prefix+strconv.Itoa(w.Start))
	if err != nil {
		return err
	}
	c.Sites = append(c.Sites, Site{Pipeline: p, Start: w.Start, Consumed: w.Consumed, Node: id})

	next, ok := cur.Peek()
	if !ok {
		return nil
	}
	branch, ok := next.(traversal.Branch)
	if !ok {
		return nil
	}
	for k, arm := range branch.Arms {
		if !startsWithLinkedScan(arm) {
			continue
		}
		armPrefix := fmt.Sprintf("%s%d.%d.", prefix, cur.Pos(), k)
		if err := c.build(b, arm, 0, id, armPrefix); err != nil {
			return err
		}
	}
	return nil
}

func startsWithLinkedScan(p *traversal.Pipeline) bool {
	if p.Len() == 0 {
		return false
	}
	scan, ok := p.At(0).(traversal.Scan)
	return ok && scan.Via != ""
}
