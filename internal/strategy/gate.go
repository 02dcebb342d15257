package strategy

import (
	"fmt"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// gate reports why p cannot be compiled, or "" when it can. Captures with
// projection modulators and captures nested inside branch arms rebuild
// paths the compiled plan cannot reproduce.
func gate(p *traversal.Pipeline) string {
	return gateAt(p, false)
}

func gateAt(p *traversal.Pipeline, inArm bool) string {
	for i, op := range p.Ops() {
		switch o := op.(type) {
		case traversal.PathCapture:
			if reason := captureReason(o.Kind(), o.By, inArm, i); reason != "" {
				return reason
			}
		case traversal.TreeCapture:
			if reason := captureReason(o.Kind(), o.By, inArm, i); reason != "" {
				return reason
			}
		case traversal.Branch:
			for _, arm := range o.Arms {
				if reason := gateAt(arm, true); reason != "" {
					return reason
				}
			}
		}
	}
	return ""
}

func captureReason(kind traversal.Kind, by []string, inArm bool, pos int) string {
	switch {
	case len(by) > 0:
		return fmt.Sprintf("%s at position %d has by modulators", kind, pos)
	case inArm:
		return fmt.Sprintf("%s at position %d is inside a branch arm", kind, pos)
	default:
		return ""
	}
}
