package plan

import (
	"slices"
	"strings"
)

// ReservedLabelMarker ends every synthetic label. User labels may not
// contain it.
const ReservedLabelMarker = "~sqlgraph.path"

// SyntheticLabel returns the label attached to an unlabeled node at address.
func SyntheticLabel(address string) string {
	return address + ReservedLabelMarker
}

// IsSyntheticLabel reports whether label was generated by AssignPathLabels.
func IsSyntheticLabel(label string) bool {
	return strings.HasSuffix(label, ReservedLabelMarker)
}

// UserLabels returns labels without the synthetic ones.
func UserLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		if !IsSyntheticLabel(l) {
			out = append(out, l)
		}
	}
	return out
}

// AssignPathLabels gives every unlabeled node that precedes a capture a
// synthetic label derived from its address.
func (t *Tree) AssignPathLabels() {
	t.requireComplete("assign path labels")
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.PrecedesCapture && len(n.Labels) == 0 {
			n.Labels = []string{SyntheticLabel(n.Address)}
		}
	}
}

// PropagateLabels sets each leaf's carried labels to every label on its
// ancestry, root first. Interior nodes carry their own labels.
func (t *Tree) PropagateLabels() {
	t.requireComplete("propagate labels")
	for i := range t.nodes {
		n := &t.nodes[i]
		if len(n.Children) > 0 {
			n.CarriedLabels = append([]string(nil), n.Labels...)
			continue
		}
		var carried []string
		for _, id := range t.Ancestry(n.ID) {
			for _, l := range t.nodes[id].Labels {
				if !slices.Contains(carried, l) {
					carried = append(carried, l)
				}
			}
		}
		n.CarriedLabels = carried
	}
}

func (t *Tree) requireComplete(what string) {
	if !t.complete {
		panic("plan: " + what + " on incomplete tree")
	}
}
