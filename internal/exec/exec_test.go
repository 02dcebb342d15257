package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/traversal"
)

func windowOps(entity string, rng traversal.Range) []traversal.Operation {
	return []traversal.Operation{
		traversal.Scan{EntityType: entity},
		traversal.Filter{Predicate: traversal.Compare{Key: "age", Op: traversal.OpGt, Value: ir.IRInt(30)}},
		traversal.Filter{Predicate: traversal.Compare{Key: "city", Op: traversal.OpEq, Value: ir.IRString("NYC")}},
		traversal.Order{Keys: []traversal.OrderKey{{Key: "name", Direction: traversal.Asc}}},
		rng,
	}
}

func TestRun_SingleQueryWindow(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(windowOps("Person", traversal.Range{Offset: 0, Limit: 2})...)

	interpreted := f.run(t, p)
	cp, c := f.compiled(t, p)
	compiled := f.run(t, cp)

	root := c.Tree.Node(0)
	assert.True(t, root.PushOrderToStore)
	assert.True(t, root.PushRangeToStore)
	assert.Equal(t, []ir.IRValue{ir.IRInt(2), ir.IRInt(5)}, ids(interpreted))
	assert.Equal(t, comparable(interpreted), comparable(compiled))
	assert.Empty(t, f.collector.Named(diag.ExecEagerLoaded))
}

func TestRun_MultiQueryWindowSortsInMemory(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(windowOps("Employee", traversal.Range{Offset: 0, Limit: 3})...)

	cp, c := f.compiled(t, p)
	compiled := f.run(t, cp)
	interpreted := f.run(t, p)

	assert.True(t, c.Tree.Node(0).EagerLoad)
	assert.Equal(t, []string{"amy", "amy", "kim"}, names(compiled))
	assert.Equal(t, "staff_a", compiled[0].Current.Table, "ties keep fetch order")
	assert.Equal(t, "staff_b", compiled[1].Current.Table)
	assert.Equal(t, comparable(interpreted), comparable(compiled))

	events := f.collector.Named(diag.ExecEagerLoaded)
	require.Len(t, events, 1)
	assert.Equal(t, 5, events[0].Data["fetched"])
	assert.Equal(t, 3, events[0].Data["kept"])
}

func TestRun_ConsecutiveOrdersMatchSequentialSorts(t *testing.T) {
	byKey := func(key string) traversal.Order {
		return traversal.Order{Keys: []traversal.OrderKey{{Key: key}}}
	}
	tests := []struct {
		name   string
		entity string
		first  string
		second string
		eager  bool
		want   []string
	}{
		{"single-query", "Person", "city", "name", false,
			[]string{"person/2", "person/5", "person/4", "person/3", "person/1", "person/6"}},
		{"multi-query", "Employee", "name", "city", true,
			[]string{"staff_b/2", "staff_a/2", "staff_b/1", "staff_b/3", "staff_a/3", "staff_a/1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := traversal.New(traversal.Scan{EntityType: tt.entity}, byKey(tt.first), byKey(tt.second))

			cp, c := f.compiled(t, p)
			compiled := f.run(t, cp)
			interpreted := f.run(t, p)

			root := c.Tree.Node(0)
			assert.Equal(t, tt.eager, root.EagerLoad)
			assert.Equal(t, !tt.eager, root.PushOrderToStore)

			var got []string
			for _, r := range compiled {
				got = append(got, r.Current.Table+"/"+ir.String(r.Current.ID))
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, comparable(interpreted), comparable(compiled))
		})
	}
}

func TestRun_RangeWithoutOrder(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		rng    traversal.Range
		want   []string
	}{
		{"single-query pushes range", "Person", traversal.Range{Offset: 1, Limit: 2}, []string{"person/2", "person/3"}},
		{"multi-query streams range", "Employee", traversal.Range{Offset: 2, Limit: 3}, []string{"staff_a/3", "staff_b/1", "staff_b/2"}},
		{"unbounded", "Employee", traversal.Range{Offset: 4, Limit: -1}, []string{"staff_b/2", "staff_b/3"}},
		{"offset past end", "Person", traversal.Range{Offset: 50, Limit: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := traversal.New(traversal.Scan{EntityType: tt.entity}, tt.rng)

			cp, _ := f.compiled(t, p)
			compiled := f.run(t, cp)
			interpreted := f.run(t, p)

			var got []string
			for _, r := range compiled {
				got = append(got, r.Current.Table+"/"+ir.String(r.Current.ID))
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, comparable(interpreted), comparable(compiled))
		})
	}
}

func TestRun_FilterSemanticsMatchStore(t *testing.T) {
	preds := []traversal.Predicate{
		traversal.Compare{Key: "age", Op: traversal.OpNeq, Value: ir.IRString("x")},
		traversal.Compare{Key: "age", Op: traversal.OpLt, Value: ir.IRString("x")},
		traversal.Compare{Key: "city", Op: traversal.OpLte, Value: ir.IRInt(3)},
		traversal.Compare{Key: "city", Op: traversal.OpGte, Value: ir.IRInt(3)},
		traversal.Compare{Key: "city", Op: traversal.OpNeq, Value: ir.IRString("LA")},
		traversal.Compare{Key: "nickname", Op: traversal.OpEq, Value: ir.IRString("x")},
		traversal.Compare{Key: "name", Op: traversal.OpEq, Value: ir.IRNull{}},
		traversal.Compare{Key: "id", Op: traversal.OpGte, Value: ir.IRInt(3)},
		traversal.Within{Key: "name", Values: []ir.IRValue{ir.IRString("ann"), ir.IRInt(1), ir.IRString("eve")}},
		traversal.And{},
		traversal.And{Predicates: []traversal.Predicate{
			traversal.Compare{Key: "age", Op: traversal.OpGte, Value: ir.IRInt(30)},
			traversal.Compare{Key: "name", Op: traversal.OpLt, Value: ir.IRString("c")},
		}},
	}

	f := newFixture(t)
	for _, pred := range preds {
		t.Run(pred.String(), func(t *testing.T) {
			p := traversal.New(traversal.Scan{EntityType: "Person"}, traversal.Filter{Predicate: pred})
			cp, _ := f.compiled(t, p)
			assert.Equal(t, comparable(f.run(t, p)), comparable(f.run(t, cp)))
		})
	}
}

func TestRun_IDFilter(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(traversal.Scan{EntityType: "Person", IDs: []ir.IRValue{ir.IRInt(4), ir.IRInt(2), ir.IRInt(99)}})

	cp, _ := f.compiled(t, p)
	compiled := f.run(t, cp)
	assert.Equal(t, []ir.IRValue{ir.IRInt(2), ir.IRInt(4)}, ids(compiled))
	assert.Equal(t, comparable(f.run(t, p)), comparable(compiled))
}

func branchTraversal(capture traversal.Operation) *traversal.Pipeline {
	return traversal.New(
		traversal.Scan{EntityType: "Person", IDs: []ir.IRValue{ir.IRInt(1), ir.IRInt(2)}},
		traversal.NewBranch(
			[]traversal.Operation{traversal.Scan{EntityType: "Address", Via: "address"}},
			[]traversal.Operation{
				traversal.Scan{EntityType: "Address", Via: "address"},
				traversal.Order{Keys: []traversal.OrderKey{{Key: "street", Direction: traversal.Desc}}},
			},
		),
		capture,
	)
}

func TestRun_PathCaptureThroughBranches(t *testing.T) {
	f := newFixture(t)
	p := branchTraversal(traversal.PathCapture{})

	interpreted := f.run(t, p)
	cp, c := f.compiled(t, p)
	compiled := f.run(t, cp)

	require.Equal(t, 3, c.Tree.Len())
	_, ok := cp.At(0).(plan.Compiled)
	assert.True(t, ok)

	assert.Equal(t, comparable(interpreted), comparable(compiled))

	var streets []string
	for _, r := range compiled {
		path := r.Value.([]any)
		require.Len(t, path, 2)
		streets = append(streets, ir.String(path[1].(Element).Value("street")))
	}
	assert.Equal(t, []string{"Oak", "Ash", "Main", "Oak", "Main", "Ash", "Elm", "Elm"}, streets)
}

func TestRun_TreeCaptureThroughBranches(t *testing.T) {
	f := newFixture(t)
	p := branchTraversal(traversal.TreeCapture{})

	interpreted := f.run(t, p)
	cp, _ := f.compiled(t, p)
	compiled := f.run(t, cp)

	require.Len(t, compiled, 1)
	assert.Equal(t, interpreted[0].Value, compiled[0].Value)

	tree := compiled[0].Value.(*Tree)
	require.Len(t, tree.Roots, 2)
	assert.Len(t, tree.Roots[0].Children, 3, "both arms reach the same three addresses")
	assert.Len(t, tree.Roots[1].Children, 1)
}

func TestRun_PathCaptureWithModulators(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(
		traversal.Scan{EntityType: "Person", IDs: []ir.IRValue{ir.IRInt(2)}},
		traversal.Scan{EntityType: "Address", Via: "address"},
		traversal.PathCapture{By: []string{"name", "street"}},
	)

	rows := f.run(t, p)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{ir.IRString("ann"), ir.IRString("Elm")}, rows[0].Value)
}

func TestRun_LabelsReachPath(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(
		traversal.Scan{EntityType: "Person", IDs: []ir.IRValue{ir.IRInt(2)}, Labels: []string{"p"}},
		traversal.NewBranch([]traversal.Operation{traversal.Scan{EntityType: "Address", Via: "address", Labels: []string{"a"}}}),
		traversal.PathCapture{},
	)

	cp, _ := f.compiled(t, p)
	compiled := f.run(t, cp)
	require.Len(t, compiled, 1)
	require.Len(t, compiled[0].Path, 2)
	assert.Equal(t, []string{"p"}, compiled[0].Path[0].Labels)
	assert.Equal(t, []string{"a"}, compiled[0].Path[1].Labels)
	assert.Equal(t, f.run(t, p)[0].Path, compiled[0].Path)
}

func TestRun_ComputedOrderKey(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(
		traversal.Scan{EntityType: "Person"},
		traversal.Order{Keys: []traversal.OrderKey{{Key: "name", Func: "length", Direction: traversal.Desc}, {Key: "age", Direction: traversal.Desc}}},
		traversal.Range{Offset: 0, Limit: 3},
	)

	cp, c := f.compiled(t, p)
	assert.True(t, c.Tree.Node(0).EagerLoad)
	compiled := f.run(t, cp)
	assert.Equal(t, []string{"dana", "carl", "bea"}, names(compiled))
	assert.Equal(t, comparable(f.run(t, p)), comparable(compiled))
}

func TestRun_UnsupportedOrderFunction(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(
		traversal.Scan{EntityType: "Person"},
		traversal.Order{Keys: []traversal.OrderKey{{Key: "name", Func: "reverse"}}},
	)
	_, err := f.exec.Run(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported order function")
}

func TestRun_LinkMismatch(t *testing.T) {
	f := newFixture(t)
	p := traversal.New(
		traversal.Scan{EntityType: "Person"},
		traversal.Scan{EntityType: "Person", Via: "address"},
	)
	_, err := f.exec.Run(context.Background(), p)
	require.Error(t, err)
}

func TestIterator_Lazy(t *testing.T) {
	f := newFixture(t)
	it, err := f.exec.Iterator(traversal.New(traversal.Scan{EntityType: "Person"}, traversal.Range{Offset: 0, Limit: 1}))
	require.NoError(t, err)

	r, err := it.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, ir.IRInt(1), r.Current.ID)

	r, err = it.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestMatches_NullNeverMatches(t *testing.T) {
	el := Element{Entity: "Person", ID: ir.IRInt(1), Props: ir.IRObject{"name": ir.IRNull{}}}
	for _, op := range []traversal.CompareOp{traversal.OpEq, traversal.OpNeq, traversal.OpLt, traversal.OpGt} {
		ok, err := Matches(traversal.Compare{Key: "name", Op: op, Value: ir.IRString("a")}, el)
		require.NoError(t, err)
		assert.False(t, ok, "op %s", op)
	}
}

func TestSliceRange(t *testing.T) {
	rows := []*Row{{}, {}, {}, {}}
	assert.Len(t, sliceRange(rows, traversal.Range{Offset: 1, Limit: 2}), 2)
	assert.Len(t, sliceRange(rows, traversal.Range{Offset: 3, Limit: 5}), 1)
	assert.Len(t, sliceRange(rows, traversal.Range{Offset: 0, Limit: -1}), 4)
	assert.Empty(t, sliceRange(rows, traversal.Range{Offset: 4, Limit: 1}))
}
