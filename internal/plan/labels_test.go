package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlgraph/internal/traversal"
)

func branchingTraversal(capture traversal.Operation) *traversal.Pipeline {
	return traversal.New(
		traversal.Scan{EntityType: "Person"},
		traversal.NewBranch(
			[]traversal.Operation{traversal.Scan{EntityType: "Address", Via: "address"}},
			[]traversal.Operation{
				traversal.Scan{EntityType: "Address", Via: "address"},
				traversal.Order{Keys: []traversal.OrderKey{{Key: "street"}}},
			},
		),
		capture,
	)
}

func TestAssignPathLabels_UniqueSyntheticLabels(t *testing.T) {
	c, err := Compile(branchingTraversal(traversal.PathCapture{}), singleTablePerson())
	require.NoError(t, err)
	require.Equal(t, 3, c.Tree.Len())

	seen := map[string]bool{}
	for _, id := range c.Tree.IDs() {
		n := c.Tree.Node(id)
		require.Len(t, n.Labels, 1)
		label := n.Labels[0]
		assert.True(t, IsSyntheticLabel(label))
		assert.False(t, seen[label], "label %q reused", label)
		seen[label] = true
	}
	assert.Equal(t, SyntheticLabel("0"), c.Tree.Node(0).Labels[0])
	assert.Equal(t, SyntheticLabel("1.0.0"), c.Tree.Node(1).Labels[0])
	assert.Equal(t, SyntheticLabel("1.1.0"), c.Tree.Node(2).Labels[0])
}

func TestAssignPathLabels_KeepsUserLabels(t *testing.T) {
	p := traversal.New(traversal.Scan{EntityType: "Person", Labels: []string{"p"}}, traversal.PathCapture{})
	c, err := Compile(p, singleTablePerson())
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, c.Tree.Node(0).Labels)
}

func TestAssignPathLabels_NoCaptureNoLabels(t *testing.T) {
	c, err := Compile(branchingTraversal(traversal.Range{Offset: 0, Limit: 1}), singleTablePerson())
	require.NoError(t, err)
	for _, id := range c.Tree.IDs() {
		assert.Empty(t, c.Tree.Node(id).Labels)
		assert.Empty(t, c.Tree.Node(id).CarriedLabels)
	}
}

func TestPropagateLabels_LeavesCarryAncestry(t *testing.T) {
	p := traversal.New(
		traversal.Scan{EntityType: "Person", Labels: []string{"p"}},
		traversal.NewBranch([]traversal.Operation{traversal.Scan{EntityType: "Address", Via: "address"}}),
		traversal.TreeCapture{},
	)
	c, err := Compile(p, singleTablePerson())
	require.NoError(t, err)

	leaves := c.Tree.Leaves()
	require.Equal(t, []NodeID{1}, leaves)
	assert.Equal(t, []string{"p", SyntheticLabel("1.0.0")}, c.Tree.Node(1).CarriedLabels)
	assert.Equal(t, []string{"p"}, c.Tree.Node(0).CarriedLabels)
}

func TestLabels_PanicOnIncompleteTree(t *testing.T) {
	tree := NewTree()
	assert.Panics(t, tree.AssignPathLabels)
	assert.Panics(t, tree.PropagateLabels)
}

func TestUserLabels(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UserLabels([]string{"a", SyntheticLabel("3"), "b"}))
	assert.Nil(t, UserLabels([]string{SyntheticLabel("0")}))
}
