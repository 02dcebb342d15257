package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// LoadReport is the JSON payload of load.
type LoadReport struct {
	Rows   int            `json:"rows"`
	Tables map[string]int `json:"tables"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <data.yaml>",
		Short: "Insert rows into the database",
		Long: `Insert the rows of a YAML data file into the database, creating the
tables the topology declares. Rows are buffered and written in a single
transaction; nothing is written if any row is rejected.

Example:
  sqlgraph load --topology ./topology --db ./graph.db ./data.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	topo, err := loadTopology(f, opts.Topology)
	if err != nil {
		return err
	}
	rows, err := loadDataFile(path, topo)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeData, fmt.Sprintf("invalid data file %s: %v", path, err), err)
	}

	report := LoadReport{Tables: make(map[string]int)}
	collector := diag.NewCollector(func(e diag.Event) {
		if e.Name != diag.StoreFlushed {
			return
		}
		if n, ok := e.Data["rows"].(int); ok {
			report.Rows += n
		}
	})

	st, err := openStore(f, opts.Database, topo, store.WithCollector(collector))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	st.BeginBatch()
	for _, t := range topo.PhysicalTables() {
		for _, row := range rows[t.Name] {
			if err := st.Insert(ctx, t.Name, row); err != nil {
				return f.Fail(ExitFailure, ErrCodeData, fmt.Sprintf("invalid row for %s: %v", t.Name, err), err)
			}
			report.Tables[t.Name]++
		}
	}
	if err := st.EndBatch(ctx); err != nil {
		return f.Fail(ExitFailure, ErrCodeStore, fmt.Sprintf("failed to write rows: %v", err), err)
	}

	if f.IsJSON() {
		return f.Success(report)
	}
	fmt.Fprintf(f.Writer, "loaded %d rows into %d tables\n", report.Rows, len(report.Tables))
	return nil
}
