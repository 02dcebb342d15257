package strategy

import (
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
)

// Explanation is a plan tree in canonical form with its fingerprint.
type Explanation struct {
	Plan        ir.IRObject
	Fingerprint string
}

// Explain describes tree. Two trees with the same fingerprint compile to
// the same statements.
func Explain(tree *plan.Tree) (*Explanation, error) {
	desc := tree.Describe()
	fp, err := ir.Fingerprint(ir.DomainPlan, desc)
	if err != nil {
		return nil, err
	}
	return &Explanation{Plan: desc, Fingerprint: fp}, nil
}

// Canonical returns the RFC 8785 encoding of the plan.
func (e *Explanation) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(e.Plan)
}
