package plan

import (
	"fmt"
	"slices"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// Window is a scan together with the run of operations absorbed after it.
type Window struct {
	Scan      traversal.Scan
	Start     int
	Consumed  int
	Filters   []traversal.Predicate
	OrderKeys []traversal.OrderKey
	Range     *traversal.Range

	// Labels is the union of labels declared on absorbed operations.
	Labels []string

	// PrecedesCapture is set when a capture is reachable after the window.
	PrecedesCapture bool
}

// End returns the position just past the window.
func (w Window) End() int {
	return w.Start + w.Consumed
}

type windowPhase int

const (
	phaseFilter windowPhase = iota
	phaseOrder
	phaseDone
)

// CollectWindow absorbs the operations following the scan under cur, in
// the order filters, order keys, at most one range. Consecutive orders
// merge into one key list with the last order's keys most significant. It stops at the first
// operation out of that order, at any other kind, or at the end of the
// pipeline, and leaves cur positioned there. The pipeline is not modified.
func CollectWindow(cur *traversal.Cursor) Window {
	op, ok := cur.Next()
	if !ok {
		panic("plan: collect window at end of pipeline")
	}
	scan, ok := op.(traversal.Scan)
	if !ok {
		panic(fmt.Sprintf("plan: collect window at %s, want scan", op.Kind()))
	}

	w := Window{Scan: scan, Start: cur.Pos() - 1, Consumed: 1}
	w.Labels = appendLabels(w.Labels, scan.Labels)

	phase := phaseFilter
loop:
	for {
		next, ok := cur.Peek()
		if !ok {
			break
		}
		switch o := next.(type) {
		case traversal.Filter:
			if phase != phaseFilter {
				break loop
			}
			w.Filters = append(w.Filters, o.Predicate)
		case traversal.Order:
			if phase > phaseOrder {
				break loop
			}
			phase = phaseOrder
			// A later order re-sorts stably, so its keys lead.
			w.OrderKeys = append(slices.Clone(o.Keys), w.OrderKeys...)
		case traversal.Range:
			if phase == phaseDone {
				break loop
			}
			phase = phaseDone
			r := traversal.Range{Offset: o.Offset, Limit: o.Limit}
			w.Range = &r
		default:
			break loop
		}
		w.Labels = appendLabels(w.Labels, traversal.LabelsOf(next))
		cur.Next()
		w.Consumed++
	}

	w.PrecedesCapture = cur.Pipeline().HasCaptureFrom(w.End())
	return w
}

func appendLabels(dst, labels []string) []string {
	for _, l := range labels {
		if !slices.Contains(dst, l) {
			dst = append(dst, l)
		}
	}
	return dst
}
