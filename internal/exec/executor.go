package exec

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/querysql"
	"github.com/roach88/sqlgraph/internal/store"
	"github.com/roach88/sqlgraph/internal/topology"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// Executor runs pipelines against a store.
type Executor struct {
	store     *store.Store
	topo      *topology.Topology
	sql       *querysql.SQLCompiler
	collector *diag.Collector
	logger    *slog.Logger

	stmts map[plan.Compiled][]querysql.Statement
}

// Option configures an Executor.
type Option func(*Executor)

// WithCollector reports eager loads to c.
func WithCollector(c *diag.Collector) Option {
	return func(e *Executor) {
		e.collector = c
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// New creates an executor reading from st.
func New(st *store.Store, opts ...Option) *Executor {
	e := &Executor{
		store:  st,
		topo:   st.Topology(),
		sql:    querysql.NewSQLCompiler(st.Topology()),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stmts:  make(map[plan.Compiled][]querysql.Statement),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Iterator builds the stage chain for p. Nothing is read until Next.
func (e *Executor) Iterator(p *traversal.Pipeline) (Iterator, error) {
	return e.chain(p, &sliceIter{rows: []*Row{{}}})
}

// Run drains p into a row list.
func (e *Executor) Run(ctx context.Context, p *traversal.Pipeline) ([]Row, error) {
	it, err := e.Iterator(p)
	if err != nil {
		return nil, err
	}
	rows, err := Drain(ctx, it)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

// Statements returns the statements a compiled operation runs, compiling
// them on first use.
func (e *Executor) Statements(op plan.Compiled) ([]querysql.Statement, error) {
	if stmts, ok := e.stmts[op]; ok {
		return stmts, nil
	}
	stmts, err := e.sql.CompileNode(op.Tree, op.Node)
	if err != nil {
		return nil, err
	}
	e.stmts[op] = stmts
	return stmts, nil
}

func (e *Executor) chain(p *traversal.Pipeline, src Iterator) (Iterator, error) {
	it := src
	for i, op := range p.Ops() {
		next, err := e.stage(op, it)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, op.Kind(), err)
		}
		it = next
	}
	return it, nil
}

func (e *Executor) stage(op traversal.Operation, in Iterator) (Iterator, error) {
	switch o := op.(type) {
	case traversal.Scan:
		if _, err := e.topo.Entity(o.EntityType); err != nil {
			return nil, err
		}
		if o.Via == "" {
			return &flatMapIter{in: in, fn: func(ctx context.Context, r *Row) ([]*Row, error) {
				return e.scanAll(ctx, r, o)
			}}, nil
		}
		return &flatMapIter{in: in, fn: func(ctx context.Context, r *Row) ([]*Row, error) {
			return e.scanLinked(ctx, r, o)
		}}, nil

	case traversal.Filter:
		return &flatMapIter{in: in, fn: func(_ context.Context, r *Row) ([]*Row, error) {
			ok, err := Matches(o.Predicate, r.Current)
			if err != nil || !ok {
				return nil, err
			}
			return []*Row{r.withLabels(o.Labels)}, nil
		}}, nil

	case traversal.Order:
		if err := CheckOrderKeys(o.Keys); err != nil {
			return nil, err
		}
		return &materializeIter{in: in, fn: func(rows []*Row) ([]*Row, error) {
			if err := sortRows(rows, o.Keys); err != nil {
				return nil, err
			}
			for i, r := range rows {
				rows[i] = r.withLabels(o.Labels)
			}
			return rows, nil
		}}, nil

	case traversal.Range:
		return &rangeIter{in: in, rng: o}, nil

	case traversal.PathCapture:
		return &flatMapIter{in: in, fn: func(_ context.Context, r *Row) ([]*Row, error) {
			return []*Row{{Current: r.Current, Path: r.Path, Value: pathValue(r, o.By)}}, nil
		}}, nil

	case traversal.TreeCapture:
		return &materializeIter{in: in, fn: func(rows []*Row) ([]*Row, error) {
			tree := &Tree{}
			for _, r := range rows {
				tree.add(pathValue(r, o.By))
			}
			return []*Row{{Value: tree}}, nil
		}}, nil

	case traversal.Branch:
		return &flatMapIter{in: in, fn: func(ctx context.Context, r *Row) ([]*Row, error) {
			var out []*Row
			for k, arm := range o.Arms {
				it, err := e.chain(arm, &sliceIter{rows: []*Row{r}})
				if err != nil {
					return nil, fmt.Errorf("arm %d: %w", k, err)
				}
				rows, err := Drain(ctx, it)
				if err != nil {
					return nil, fmt.Errorf("arm %d: %w", k, err)
				}
				out = append(out, rows...)
			}
			return out, nil
		}}, nil

	case plan.Compiled:
		return e.newCompiledIter(o, in)

	default:
		return nil, fmt.Errorf("unsupported operation type: %T", op)
	}
}

// scanAll emits every element of the scan's entity, table by table in
// id order, restricted to the scan's ids.
func (e *Executor) scanAll(ctx context.Context, r *Row, scan traversal.Scan) ([]*Row, error) {
	entity, err := e.topo.Entity(scan.EntityType)
	if err != nil {
		return nil, err
	}
	var out []*Row
	for _, table := range entity.Tables {
		records, err := e.store.ScanTable(ctx, table)
		if err != nil {
			return nil, err
		}
		out = append(out, e.scanRows(r, entity, records, scan)...)
	}
	return out, nil
}

// scanLinked emits the elements related to r through scan.Via.
func (e *Executor) scanLinked(ctx context.Context, r *Row, scan traversal.Scan) ([]*Row, error) {
	link, err := e.topo.Link(r.Current.Entity, scan.Via)
	if err != nil {
		return nil, err
	}
	if link.Target != scan.EntityType {
		return nil, fmt.Errorf("link %q from %q reaches %q, not %q", scan.Via, r.Current.Entity, link.Target, scan.EntityType)
	}
	entity, err := e.topo.Entity(link.Target)
	if err != nil {
		return nil, err
	}
	var out []*Row
	for _, table := range entity.Tables {
		records, err := e.store.ScanLinked(ctx, table, link.Column, r.Current.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, e.scanRows(r, entity, records, scan)...)
	}
	return out, nil
}

func (e *Executor) scanRows(r *Row, entity *topology.Entity, records []store.Record, scan traversal.Scan) []*Row {
	var out []*Row
	for _, rec := range records {
		if len(scan.IDs) > 0 && !containsID(scan.IDs, rec.ID()) {
			continue
		}
		out = append(out, r.withEntry(element(entity, rec), copyLabels(scan.Labels)))
	}
	return out
}

func element(entity *topology.Entity, rec store.Record) Element {
	props := make(ir.IRObject, len(entity.Columns))
	for _, col := range entity.ColumnNames() {
		v, ok := rec.Values[col]
		if !ok {
			v = ir.IRNull{}
		}
		props[col] = v
	}
	return Element{Entity: entity.Name, Table: rec.Table, ID: rec.ID(), Props: props}
}

func containsID(ids []ir.IRValue, id ir.IRValue) bool {
	for _, candidate := range ids {
		if ir.Equal(candidate, id) {
			return true
		}
	}
	return false
}

func copyLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	return append([]string(nil), labels...)
}

// pathValue renders a row's path. Without modulators it is the list of
// elements; with them, each element is projected by the modulators in
// round-robin order.
func pathValue(r *Row, by []string) []any {
	out := make([]any, len(r.Path))
	for i, entry := range r.Path {
		if len(by) == 0 {
			out[i] = entry.Element
			continue
		}
		out[i] = entry.Element.Value(by[i%len(by)])
	}
	return out
}

// rangeIter keeps rows in [Offset, Offset+Limit) and stops pulling once
// the upper bound is reached.
type rangeIter struct {
	in   Iterator
	rng  traversal.Range
	seen int64
}

func (it *rangeIter) Next(ctx context.Context) (*Row, error) {
	for {
		if high := it.rng.High(); high >= 0 && it.seen >= high {
			return nil, nil
		}
		r, err := it.in.Next(ctx)
		if err != nil || r == nil {
			return nil, err
		}
		idx := it.seen
		it.seen++
		if idx < it.rng.Offset {
			continue
		}
		return r.withLabels(it.rng.Labels), nil
	}
}
