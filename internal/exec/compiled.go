package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/querysql"
	"github.com/roach88/sqlgraph/internal/store"
	"github.com/roach88/sqlgraph/internal/topology"
)

// compiledIter runs a plan node's statements once per input row. A root
// node sees the single seed row; a child node sees each parent row and
// binds its id into the statements.
type compiledIter struct {
	e      *Executor
	node   *plan.Node
	entity *topology.Entity
	stmts  []querysql.Statement
	labels []string
	in     Iterator

	parent *Row

	// streaming state
	stmtIdx int
	buf     []store.Record
	bufPos  int
	seen    int64

	// eager state
	eager *sliceIter
}

func (e *Executor) newCompiledIter(op plan.Compiled, in Iterator) (Iterator, error) {
	stmts, err := e.Statements(op)
	if err != nil {
		return nil, err
	}
	node := op.Plan()
	entity, err := e.topo.Entity(node.EntityType)
	if err != nil {
		return nil, err
	}
	if node.EagerLoad {
		if err := CheckOrderKeys(node.OrderKeys); err != nil {
			return nil, err
		}
	}
	return &compiledIter{
		e:      e,
		node:   node,
		entity: entity,
		stmts:  stmts,
		labels: plan.UserLabels(node.Labels),
		in:     in,
	}, nil
}

func (it *compiledIter) Next(ctx context.Context) (*Row, error) {
	for {
		if it.parent == nil {
			parent, err := it.in.Next(ctx)
			if err != nil || parent == nil {
				return nil, err
			}
			it.reset(parent)
			if it.node.EagerLoad {
				rows, err := it.loadEager(ctx)
				if err != nil {
					return nil, err
				}
				it.eager = &sliceIter{rows: rows}
			}
		}

		if it.eager != nil {
			r, _ := it.eager.Next(ctx)
			if r != nil {
				return r, nil
			}
			it.parent = nil
			continue
		}

		r, err := it.nextStreaming(ctx)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
		it.parent = nil
	}
}

func (it *compiledIter) reset(parent *Row) {
	it.parent = parent
	it.stmtIdx = 0
	it.buf = nil
	it.bufPos = 0
	it.seen = 0
	it.eager = nil
}

// nextStreaming yields rows statement by statement, applying an in-memory
// range without reading past its upper bound.
func (it *compiledIter) nextStreaming(ctx context.Context) (*Row, error) {
	for {
		if it.node.RangeInMemory {
			if high := it.node.Range.High(); high >= 0 && it.seen >= high {
				return nil, nil
			}
		}
		if it.bufPos < len(it.buf) {
			rec := it.buf[it.bufPos]
			it.bufPos++
			idx := it.seen
			it.seen++
			if it.node.RangeInMemory && idx < it.node.Range.Offset {
				continue
			}
			return it.row(rec), nil
		}
		if it.stmtIdx >= len(it.stmts) {
			return nil, nil
		}
		records, err := it.query(ctx, it.stmts[it.stmtIdx])
		if err != nil {
			return nil, err
		}
		it.stmtIdx++
		it.buf = records
		it.bufPos = 0
	}
}

// loadEager reads every statement's rows, sorts them on the node's keys,
// and applies the range.
func (it *compiledIter) loadEager(ctx context.Context) ([]*Row, error) {
	start := time.Now()
	var rows []*Row
	for _, stmt := range it.stmts {
		records, err := it.query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			rows = append(rows, it.row(rec))
		}
	}
	fetched := len(rows)

	if it.node.OrderInMemory {
		if err := sortRows(rows, it.node.OrderKeys); err != nil {
			return nil, err
		}
	}
	if it.node.RangeInMemory {
		rows = sliceRange(rows, *it.node.Range)
	}

	if it.e.collector != nil {
		it.e.collector.AddTiming(diag.ExecEagerLoaded, start, map[string]any{
			"node":    int(it.node.ID),
			"entity":  it.node.EntityType,
			"fetched": fetched,
			"kept":    len(rows),
		})
	}
	it.e.logger.Debug("eager load", "node", int(it.node.ID), "entity", it.node.EntityType, "fetched", fetched, "kept", len(rows))
	return rows, nil
}

func (it *compiledIter) query(ctx context.Context, stmt querysql.Statement) ([]store.Record, error) {
	if stmt.Linked() && it.parent.Current.Entity == "" {
		return nil, fmt.Errorf("node %d: linked statement without a parent element", it.node.ID)
	}
	params, err := stmt.Bind(it.parent.Current.ID)
	if err != nil {
		return nil, err
	}
	return it.e.store.QueryTable(ctx, stmt.Table, stmt.SQL, params...)
}

// row builds the output row for a record. The parent's path is kept when
// the node carries labels, and the element joins the path when the node
// has labels of its own.
func (it *compiledIter) row(rec store.Record) *Row {
	el := element(it.entity, rec)
	var path []PathEntry
	if len(it.node.CarriedLabels) > 0 {
		path = append(path, it.parent.Path...)
	}
	if len(it.node.Labels) > 0 {
		path = append(path, PathEntry{Labels: it.labels, Element: el})
	}
	return &Row{Current: el, Path: path}
}
