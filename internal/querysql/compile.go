package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/topology"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// noLinkParam marks a statement that is not bound to a parent row.
const noLinkParam = -1

// Statement is one parameterized SELECT against one table.
type Statement struct {
	Table   string
	SQL     string
	Params  []any
	Columns []string

	linkParam int
}

// Linked reports whether the statement must be bound to a parent id.
func (s Statement) Linked() bool {
	return s.linkParam != noLinkParam
}

// Bind returns the statement parameters with the parent id filled in.
func (s Statement) Bind(parent ir.IRValue) ([]any, error) {
	params := append([]any(nil), s.Params...)
	if !s.Linked() {
		return params, nil
	}
	p, err := ir.ToParam(parent)
	if err != nil {
		return nil, fmt.Errorf("bind parent id: %w", err)
	}
	params[s.linkParam] = p
	return params, nil
}

// SQLCompiler compiles finalized plan nodes to parameterized SQL for SQLite.
//
// Every statement ends in ORDER BY with the id column as final tiebreaker,
// so rows come back in a deterministic order. Literal values are always
// bound as parameters.
type SQLCompiler struct {
	topo *topology.Topology
}

// NewSQLCompiler creates a compiler for the given topology.
func NewSQLCompiler(topo *topology.Topology) *SQLCompiler {
	return &SQLCompiler{topo: topo}
}

// CompileNode returns one statement per table of the node, in table order.
func (c *SQLCompiler) CompileNode(tree *plan.Tree, id plan.NodeID) ([]Statement, error) {
	n := tree.Node(id)
	if !n.Finalized() {
		return nil, fmt.Errorf("node %d is not finalized", id)
	}
	entity, err := c.topo.Entity(n.EntityType)
	if err != nil {
		return nil, err
	}

	var where []string
	var params []any
	linkParam := noLinkParam

	if n.Parent != plan.NoParent {
		parent := tree.Node(n.Parent)
		link, err := c.topo.Link(parent.EntityType, n.Via)
		if err != nil {
			return nil, fmt.Errorf("compile link: %w", err)
		}
		where = append(where, fmt.Sprintf("%s = ?", link.Column))
		linkParam = len(params)
		params = append(params, nil)
	}

	if n.HasIDFilter() {
		placeholders := make([]string, len(n.IDs))
		for i, v := range n.IDs {
			p, err := ir.ToParam(v)
			if err != nil {
				return nil, fmt.Errorf("compile ids: %w", err)
			}
			placeholders[i] = "?"
			params = append(params, p)
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", topology.IDColumn, strings.Join(placeholders, ", ")))
	}

	for _, pred := range n.Filters {
		sql, ps, err := c.compilePredicate(entity, pred)
		if err != nil {
			return nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, sql)
		params = append(params, ps...)
	}

	orderBy := stableOrderKey(n)

	var limit string
	if n.PushRangeToStore {
		limit = " LIMIT ? OFFSET ?"
		params = append(params, n.StoreRange.Limit, n.StoreRange.Offset)
	}

	columns := append([]string{topology.IDColumn}, entity.ColumnNames()...)
	var whereClause string
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	stmts := make([]Statement, 0, len(n.Tables()))
	for _, table := range n.Tables() {
		stmts = append(stmts, Statement{
			Table: table,
			SQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s%s",
				strings.Join(columns, ", "), table, whereClause, orderBy, limit),
			Params:    append([]any(nil), params...),
			Columns:   columns,
			linkParam: linkParam,
		})
	}
	return stmts, nil
}

// stableOrderKey returns the ORDER BY list. The id column always closes it.
func stableOrderKey(n *plan.Node) string {
	var parts []string
	if n.PushOrderToStore {
		for _, col := range n.StoreOrder {
			dir := "ASC"
			if col.Direction == traversal.Desc {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("%s %s COLLATE BINARY", col.Column, dir))
		}
	}
	parts = append(parts, topology.IDColumn+" ASC COLLATE BINARY")
	return strings.Join(parts, ", ")
}

// compilePredicate renders a predicate over the entity's columns.
// A property the entity does not have matches nothing.
func (c *SQLCompiler) compilePredicate(e *topology.Entity, p traversal.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case traversal.Compare:
		return c.compileCompare(e, pred)
	case traversal.Within:
		return c.compileWithin(e, pred)
	case traversal.And:
		return c.compileAnd(e, pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(e *topology.Entity, cmp traversal.Compare) (string, []any, error) {
	if !cmp.Op.Valid() {
		return "", nil, fmt.Errorf("unsupported operator %q", cmp.Op)
	}
	col, kind, ok := c.column(e, cmp.Key)
	if !ok {
		return "0 = 1", nil, nil
	}
	litKind := ir.KindOf(cmp.Value)
	if litKind == ir.KindNull {
		return "0 = 1", nil, nil
	}
	if litKind != kind {
		return mismatchedCompare(col, kind, litKind, cmp.Op), nil, nil
	}

	param, err := ir.ToParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s %s ?", col, sqlOperator(cmp.Op)), []any{param}, nil
}

// mismatchedCompare renders a comparison between a column and a literal of
// another kind. Such values never compare equal and order by kind.
func mismatchedCompare(col string, colKind, litKind ir.Kind, op traversal.CompareOp) string {
	notNull := col + " IS NOT NULL"
	colFirst := ir.Compare(zeroOf(colKind), zeroOf(litKind)) < 0
	switch op {
	case traversal.OpNeq:
		return notNull
	case traversal.OpLt, traversal.OpLte:
		if colFirst {
			return notNull
		}
	case traversal.OpGt, traversal.OpGte:
		if !colFirst {
			return notNull
		}
	}
	return "0 = 1"
}

func zeroOf(k ir.Kind) ir.IRValue {
	switch k {
	case ir.KindBool:
		return ir.IRBool(false)
	case ir.KindInt:
		return ir.IRInt(0)
	case ir.KindString:
		return ir.IRString("")
	case ir.KindArray:
		return ir.IRArray{}
	case ir.KindObject:
		return ir.IRObject{}
	default:
		return ir.IRNull{}
	}
}

func (c *SQLCompiler) compileWithin(e *topology.Entity, w traversal.Within) (string, []any, error) {
	col, kind, ok := c.column(e, w.Key)
	if !ok {
		return "0 = 1", nil, nil
	}
	var params []any
	for _, v := range w.Values {
		if ir.KindOf(v) != kind {
			continue
		}
		p, err := ir.ToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return "0 = 1", nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", col, placeholders), params, nil
}

func (c *SQLCompiler) compileAnd(e *topology.Entity, and traversal.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	var parts []string
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(e, pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func (c *SQLCompiler) column(e *topology.Entity, key string) (string, ir.Kind, bool) {
	col, ok := c.topo.Column(e.Name, key)
	if !ok {
		return "", "", false
	}
	if col == topology.IDColumn {
		return col, e.IDKind, true
	}
	return col, e.Columns[col], true
}

func sqlOperator(op traversal.CompareOp) string {
	switch op {
	case traversal.OpEq:
		return "="
	case traversal.OpNeq:
		return "!="
	default:
		return op.Symbol()
	}
}
