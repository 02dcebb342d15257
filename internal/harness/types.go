package harness

import (
	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/exec"
	"github.com/roach88/sqlgraph/internal/strategy"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation held and compiled and raw
	// execution agreed.
	Pass   bool
	Errors []string

	Outcome   string
	ErrorCode string
	Reason    string
	TraceID   string

	// Explanation is set when the traversal compiled.
	Explanation *strategy.Explanation

	// Traversal is the rendering of the pipeline after the compile pass.
	Traversal string

	Rows   []exec.Row
	Events []diag.Event
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
