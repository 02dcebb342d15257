package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/exec"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/strategy"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	NoCompile bool

	// TraceGenerator overrides the compile trace id source (for testing).
	TraceGenerator strategy.TraceGenerator
}

// RunReport is the JSON payload of run.
type RunReport struct {
	Traversal string    `json:"traversal"`
	Compiled  bool      `json:"compiled"`
	Rows      []RowView `json:"rows"`
}

// RowView is one output row.
type RowView struct {
	Entity string      `json:"entity,omitempty"`
	Table  string      `json:"table,omitempty"`
	ID     ir.IRValue  `json:"id,omitempty"`
	Props  ir.IRObject `json:"props,omitempty"`
	Value  string      `json:"value,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <traversal.yaml>",
		Short: "Execute a traversal",
		Long: `Compile a traversal and execute it against the database.

With --no-compile the traversal runs through the reference interpreter
instead, which reads every table in full and evaluates each step in
memory. Both paths produce the same rows.

Example:
  sqlgraph run --topology ./topology --db ./graph.db ./queries/adults.yaml
  sqlgraph run -t ./topology --db ./graph.db ./queries/adults.yaml --no-compile`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraversal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.NoCompile, "no-compile", false, "run the traversal without compiling it")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTraversal(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, f.GetErrWriter())

	topo, err := loadTopology(f, opts.Topology)
	if err != nil {
		return err
	}
	p, err := loadTraversal(f, path)
	if err != nil {
		return err
	}

	collector := diag.NewCollector(func(e diag.Event) {
		f.VerboseLog("[%s] %v", e.Name, e.Data)
	})
	st, err := openStore(f, opts.Database, topo)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var traceID string
	compiled := false
	if !opts.NoCompile {
		stratOpts := []strategy.Option{
			strategy.WithTransaction(st),
			strategy.WithSink(collector),
			strategy.WithLogger(logger),
		}
		if opts.TraceGenerator != nil {
			stratOpts = append(stratOpts, strategy.WithTraceGenerator(opts.TraceGenerator))
		}
		res, err := strategy.New(topo, stratOpts...).Apply(ctx, p)
		if err != nil {
			return compileFailure(f, err)
		}
		traceID = res.TraceID
		compiled = res.Compiled()
	}

	executor := exec.New(st, exec.WithCollector(collector), exec.WithLogger(logger))
	rows, err := executor.Run(ctx, p)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeExec, fmt.Sprintf("execution failed: %v", err), err)
	}

	if f.IsJSON() {
		report := RunReport{Traversal: p.String(), Compiled: compiled, Rows: make([]RowView, len(rows))}
		for i, r := range rows {
			report.Rows[i] = rowView(r)
		}
		return f.SuccessWithTrace(report, traceID)
	}

	f.VerboseLog("traversal: %s", p.String())
	fmt.Fprint(f.Writer, NewTableFormatter(f.Writer, opts.NoColor).RowsTable(rows))
	return nil
}

func rowView(r exec.Row) RowView {
	v := RowView{
		Entity: r.Current.Entity,
		Table:  r.Current.Table,
		ID:     r.Current.ID,
		Props:  r.Current.Props,
	}
	if r.Value != nil {
		v.Value = formatRowValue(r)
	}
	return v
}
