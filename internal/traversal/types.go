package traversal

import "github.com/roach88/sqlgraph/internal/ir"

// Kind identifies an operation variant.
type Kind string

const (
	KindScan        Kind = "scan"
	KindFilter      Kind = "filter"
	KindOrder       Kind = "order"
	KindRange       Kind = "range"
	KindPathCapture Kind = "path"
	KindTreeCapture Kind = "tree"
	KindBranch      Kind = "branch"
	KindCompiled    Kind = "compiled"
)

// Operation is one step of a traversal pipeline.
type Operation interface {
	Kind() Kind
}

// Scan selects entities of EntityType. A root scan may be constrained to IDs.
// A scan inside a branch arm follows the link named Via from each incoming
// row to its related entities.
type Scan struct {
	EntityType string
	IDs        []ir.IRValue
	Via        string
	Labels     []string
}

func (Scan) Kind() Kind { return KindScan }

// Filter keeps rows for which Predicate holds.
type Filter struct {
	Predicate Predicate
	Labels    []string
}

func (Filter) Kind() Kind { return KindFilter }

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderKey is one sort key. An empty Func is a plain property reference;
// otherwise the key is the named function applied to the property.
type OrderKey struct {
	Key       string
	Func      string
	Direction Direction
}

// IsPlainColumn reports whether the key references a property directly.
func (k OrderKey) IsPlainColumn() bool {
	return k.Func == ""
}

// Order sorts rows by Keys, most significant first.
type Order struct {
	Keys   []OrderKey
	Labels []string
}

func (Order) Kind() Kind { return KindOrder }

// Range keeps rows with position in [Offset, Offset+Limit). A negative
// Limit means no upper bound.
type Range struct {
	Offset int64
	Limit  int64
	Labels []string
}

func (Range) Kind() Kind { return KindRange }

// High returns the exclusive upper bound, or -1 when unbounded.
func (r Range) High() int64 {
	if r.Limit < 0 {
		return -1
	}
	return r.Offset + r.Limit
}

// PathCapture replaces each row with its path. By lists per-element
// projections; an empty By emits the elements themselves.
type PathCapture struct {
	By []string
}

func (PathCapture) Kind() Kind { return KindPathCapture }

// TreeCapture folds the paths of all rows into a single tree.
type TreeCapture struct {
	By []string
}

func (TreeCapture) Kind() Kind { return KindTreeCapture }

// Branch splits the traversal: every incoming row is fed to each arm in
// order and the arms' outputs are concatenated.
type Branch struct {
	Arms []*Pipeline
}

func (Branch) Kind() Kind { return KindBranch }

// LabelsOf returns the labels declared on op, if any.
func LabelsOf(op Operation) []string {
	switch o := op.(type) {
	case Scan:
		return o.Labels
	case Filter:
		return o.Labels
	case Order:
		return o.Labels
	case Range:
		return o.Labels
	default:
		return nil
	}
}

// IsCapture reports whether op is a path or tree capture.
func IsCapture(op Operation) bool {
	switch op.(type) {
	case PathCapture, TreeCapture:
		return true
	default:
		return false
	}
}
