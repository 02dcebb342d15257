package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// Compiled is the operation substituted for a compiled window.
type Compiled struct {
	Tree *Tree
	Node NodeID
}

func (Compiled) Kind() traversal.Kind { return traversal.KindCompiled }

// Plan returns the node this operation executes.
func (c Compiled) Plan() *Node {
	return c.Tree.Node(c.Node)
}

func (c Compiled) String() string {
	n := c.Plan()
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{n.PushOrderToStore, "pushOrder"},
		{n.PushRangeToStore, "pushRange"},
		{n.EagerLoad, "eager"},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	return fmt.Sprintf("compiled(#%d %s [%s])", n.ID, n.EntityType, strings.Join(flags, " "))
}
