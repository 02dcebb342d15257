package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/exec"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/store"
	"github.com/roach88/sqlgraph/internal/strategy"
	"github.com/roach88/sqlgraph/internal/testutil"
	"github.com/roach88/sqlgraph/internal/topology"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// Harness holds the collaborators for one scenario run.
type Harness struct {
	store     *store.Store
	topo      *topology.Topology
	collector *diag.Collector
	logger    *slog.Logger
}

// Run executes a scenario against a fresh in-memory store.
//
// Failed expectations are reported in the result. An error is returned
// only when the scenario cannot be run at all: a bad topology, seed rows
// the store rejects, or a traversal that fails to execute.
func Run(scenario *Scenario) (*Result, error) {
	topo, err := topology.Parse(scenario.Topology)
	if err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}

	clock := testutil.NewDeterministicClock()
	collector := diag.NewCollector(nil, diag.WithSequencer(clock), diag.WithNow(clock.Now))

	st, err := store.Open(":memory:", topo, store.WithCollector(collector))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		topo:      topo,
		collector: collector,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed data: %w", err)
	}

	p, err := traversal.Build(scenario.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to build traversal: %w", err)
	}

	result, tree, err := h.execute(ctx, scenario, p)
	if err != nil {
		return nil, err
	}

	for _, msg := range checkExpect(scenario.Expect, result, tree) {
		result.AddError(msg)
	}
	return result, nil
}

// seed inserts the scenario's rows table by table in topology order.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	known := make(map[string]bool)
	for _, t := range h.topo.PhysicalTables() {
		known[t.Name] = true
	}
	for table := range scenario.Data {
		if !known[table] {
			return fmt.Errorf("table %q is not declared by the topology", table)
		}
	}

	if scenario.Batch {
		h.store.BeginBatch()
	}
	for _, t := range h.topo.PhysicalTables() {
		for i, raw := range scenario.Data[t.Name] {
			v, err := ir.FromAny(raw)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", t.Name, i, err)
			}
			if err := h.store.Insert(ctx, t.Name, v.(ir.IRObject)); err != nil {
				return fmt.Errorf("%s[%d]: %w", t.Name, i, err)
			}
		}
	}
	return nil
}

// execute compiles p, then runs the compiled and the raw traversal and
// compares their rows.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, p *traversal.Pipeline) (*Result, *plan.Tree, error) {
	result := NewResult()
	raw := p.Clone()
	before := p.String()

	strat := strategy.New(h.topo,
		strategy.WithTransaction(h.store),
		strategy.WithSink(h.collector),
		strategy.WithLogger(h.logger),
		strategy.WithTraceGenerator(testutil.NewFixedTraceGenerator(scenario.TraceID)),
	)

	res, err := strat.Apply(ctx, p)
	if err != nil {
		var ce *plan.CompileError
		if !errors.As(err, &ce) {
			return nil, nil, fmt.Errorf("failed to compile traversal: %w", err)
		}
		result.Outcome = OutcomeError
		result.ErrorCode = string(ce.Code)
		result.Traversal = p.String()
		result.Events = h.collector.Events()
		if result.Traversal != before {
			result.AddError(fmt.Sprintf("traversal changed by failed compile: %s -> %s", before, result.Traversal))
		}
		return result, nil, nil
	}

	switch {
	case res.Skipped:
		result.Outcome = OutcomeSkipped
		result.Reason = res.Reason
	case res.Compiled():
		result.Outcome = OutcomeCompiled
		result.Explanation, err = strategy.Explain(res.Tree)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to explain plan: %w", err)
		}
	default:
		result.Outcome = OutcomeUntouched
	}
	result.TraceID = res.TraceID
	result.Traversal = p.String()

	if h.store.InBatchMode() {
		if err := h.store.EndBatch(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to flush seed data: %w", err)
		}
	}

	executor := exec.New(h.store, exec.WithCollector(h.collector), exec.WithLogger(h.logger))
	compiled, err := executor.Run(ctx, p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run traversal: %w", err)
	}
	interpreted, err := executor.Run(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run raw traversal: %w", err)
	}
	if msg := compareRows(compiled, interpreted); msg != "" {
		result.AddError(msg)
	}

	result.Rows = compiled
	result.Events = h.collector.Events()
	return result, res.Tree, nil
}

// compareRows reports the first difference between compiled and raw
// output. Only the current element and captured value are compared.
func compareRows(compiled, interpreted []exec.Row) string {
	if len(compiled) != len(interpreted) {
		return fmt.Sprintf("compiled traversal produced %d rows, raw traversal %d", len(compiled), len(interpreted))
	}
	for i := range compiled {
		if !reflect.DeepEqual(compiled[i].Current, interpreted[i].Current) {
			return fmt.Sprintf("row %d: compiled %s, raw %s", i, compiled[i].Current.Key(), interpreted[i].Current.Key())
		}
		if !reflect.DeepEqual(compiled[i].Value, interpreted[i].Value) {
			return fmt.Sprintf("row %d: compiled value %s, raw value %s", i, renderRow(compiled[i]), renderRow(interpreted[i]))
		}
	}
	return ""
}
