package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/querysql"
	"github.com/roach88/sqlgraph/internal/strategy"
	"github.com/roach88/sqlgraph/internal/topology"
)

// ExplainReport is the JSON payload of explain.
type ExplainReport struct {
	Traversal   string          `json:"traversal"`
	Compiled    string          `json:"compiled"`
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Plan        ir.IRObject     `json:"plan,omitempty"`
	Statements  []NodeStatement `json:"statements,omitempty"`
}

// NodeStatement is one SQL statement of a plan node.
type NodeStatement struct {
	Node   int    `json:"node"`
	Table  string `json:"table"`
	SQL    string `json:"sql"`
	Linked bool   `json:"linked,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <traversal.yaml>",
		Short: "Show the plan a traversal compiles to",
		Long: `Compile a traversal against the topology and print the plan tree, the
SQL each node runs, and the plan fingerprint. Nothing is executed.

Example:
  sqlgraph explain --topology ./topology ./queries/adults.yaml
  sqlgraph explain -t ./topology ./queries/adults.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
}

func runExplain(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

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
	strat := strategy.New(topo,
		strategy.WithSink(collector),
		strategy.WithLogger(newLogger(opts, f.GetErrWriter())),
	)

	report := ExplainReport{Traversal: p.String()}
	res, err := strat.Apply(context.Background(), p)
	if err != nil {
		return compileFailure(f, err)
	}
	report.Compiled = p.String()

	switch {
	case res.Skipped:
		report.Outcome = "skipped"
		report.Reason = res.Reason
	case res.Compiled():
		report.Outcome = "compiled"
		if err := describePlan(&report, res.Tree, topo); err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), err)
		}
	default:
		report.Outcome = "untouched"
	}

	if f.IsJSON() {
		return f.SuccessWithTrace(report, res.TraceID)
	}
	writeExplainText(f, NewTableFormatter(f.Writer, opts.NoColor), report, res.Tree)
	return nil
}

func describePlan(report *ExplainReport, tree *plan.Tree, topo *topology.Topology) error {
	exp, err := strategy.Explain(tree)
	if err != nil {
		return fmt.Errorf("explain plan: %w", err)
	}
	report.Plan = exp.Plan
	report.Fingerprint = exp.Fingerprint

	sql := querysql.NewSQLCompiler(topo)
	for i := 0; i < tree.Len(); i++ {
		stmts, err := sql.CompileNode(tree, plan.NodeID(i))
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		for _, s := range stmts {
			report.Statements = append(report.Statements, NodeStatement{
				Node:   i,
				Table:  s.Table,
				SQL:    s.SQL,
				Linked: s.Linked(),
			})
		}
	}
	return nil
}

func writeExplainText(f *OutputFormatter, tf *TableFormatter, report ExplainReport, tree *plan.Tree) {
	w := f.Writer
	fmt.Fprintf(w, "traversal: %s\n", report.Traversal)

	switch report.Outcome {
	case "skipped":
		fmt.Fprintf(w, "%s %s\n", tf.colorize("not compiled:", colorWarn...), report.Reason)
		return
	case "untouched":
		fmt.Fprintln(w, "not compiled: traversal does not start with a root scan")
		return
	}

	fmt.Fprintf(w, "compiled:  %s\n\n", report.Compiled)
	fmt.Fprint(w, tf.PlanTable(tree))
	fmt.Fprintln(w)
	for _, s := range report.Statements {
		fmt.Fprintf(w, "node %d %s:\n  %s\n", s.Node, s.Table, s.SQL)
	}
	fmt.Fprintf(w, "\nfingerprint: %s\n", report.Fingerprint)
}
