package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlgraph/internal/ir"
)

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Valid       bool        `json:"valid"`
	Entities    int         `json:"entities"`
	Tables      int         `json:"tables"`
	Fingerprint string      `json:"fingerprint"`
	Topology    ir.IRObject `json:"topology"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the topology",
		Long: `Load the CUE topology and check it: entity declarations, column kinds,
links, and that tables shared between entities agree on their layout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	topo, err := loadTopology(f, opts.Topology)
	if err != nil {
		return err
	}
	fp, err := topo.Fingerprint()
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("fingerprint topology: %v", err), err)
	}

	result := ValidationResult{
		Valid:       true,
		Entities:    len(topo.EntityNames()),
		Tables:      len(topo.PhysicalTables()),
		Fingerprint: fp,
		Topology:    topo.Describe(),
	}
	if f.IsJSON() {
		return f.Success(result)
	}

	tf := NewTableFormatter(f.Writer, opts.NoColor)
	fmt.Fprintf(f.Writer, "%s topology valid: %d entities, %d tables\n",
		tf.colorize("✓", colorOK...), result.Entities, result.Tables)
	fmt.Fprintf(f.Writer, "fingerprint: %s\n\n", fp)
	fmt.Fprint(f.Writer, tf.TopologyTable(topo))
	return nil
}
