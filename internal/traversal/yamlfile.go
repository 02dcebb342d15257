package traversal

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlgraph/internal/ir"
)

// File is the YAML form of a traversal:
//
//	steps:
//	  - scan: {entity: Person}
//	    as: [p]
//	  - filter: {key: age, op: gt, value: 30}
//	  - order: [{key: name, dir: asc}]
//	  - range: {offset: 0, limit: 10}
//	  - path: {}
type File struct {
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec is one step. Exactly one of the operation fields must be set.
type StepSpec struct {
	Scan   *ScanSpec      `yaml:"scan,omitempty"`
	Filter *FilterSpec    `yaml:"filter,omitempty"`
	Order  []OrderKeySpec `yaml:"order,omitempty"`
	Range  *RangeSpec     `yaml:"range,omitempty"`
	Path   *CaptureSpec   `yaml:"path,omitempty"`
	Tree   *CaptureSpec   `yaml:"tree,omitempty"`
	Branch [][]StepSpec   `yaml:"branch,omitempty"`

	// As labels the step's output.
	As []string `yaml:"as,omitempty"`
}

// ScanSpec describes a Scan.
type ScanSpec struct {
	Entity string `yaml:"entity"`
	IDs    []any  `yaml:"ids,omitempty"`
	Via    string `yaml:"via,omitempty"`
}

// FilterSpec describes a predicate: a comparison (key/op/value), a
// membership test (key/within) or a conjunction (all).
type FilterSpec struct {
	Key    string       `yaml:"key,omitempty"`
	Op     string       `yaml:"op,omitempty"`
	Value  any          `yaml:"value,omitempty"`
	Within []any        `yaml:"within,omitempty"`
	All    []FilterSpec `yaml:"all,omitempty"`
}

// OrderKeySpec describes one sort key.
type OrderKeySpec struct {
	Key  string `yaml:"key"`
	Func string `yaml:"func,omitempty"`
	Dir  string `yaml:"dir,omitempty"`
}

// RangeSpec describes a Range. A missing limit is unbounded.
type RangeSpec struct {
	Offset int64  `yaml:"offset"`
	Limit  *int64 `yaml:"limit,omitempty"`
}

// CaptureSpec describes a path or tree capture.
type CaptureSpec struct {
	By []string `yaml:"by,omitempty"`
}

// LoadFile reads a traversal YAML file and builds its pipeline.
func LoadFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read traversal file: %w", err)
	}
	return Decode(data)
}

// Decode parses traversal YAML. Unknown fields are rejected.
func Decode(data []byte) (*Pipeline, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("steps list is required and must be non-empty")
	}
	return Build(f.Steps)
}

// Build converts step specs into a pipeline.
func Build(steps []StepSpec) (*Pipeline, error) {
	ops, err := buildOps(steps)
	if err != nil {
		return nil, err
	}
	return New(ops...), nil
}

func buildOps(steps []StepSpec) ([]Operation, error) {
	ops := make([]Operation, 0, len(steps))
	for i, step := range steps {
		op, err := buildOp(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func buildOp(s StepSpec) (Operation, error) {
	set := 0
	for _, present := range []bool{
		s.Scan != nil, s.Filter != nil, s.Order != nil, s.Range != nil,
		s.Path != nil, s.Tree != nil, s.Branch != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one operation must be set, found %d", set)
	}

	switch {
	case s.Scan != nil:
		if s.Scan.Entity == "" {
			return nil, fmt.Errorf("scan: entity is required")
		}
		ids := make([]ir.IRValue, 0, len(s.Scan.IDs))
		for k, raw := range s.Scan.IDs {
			id, err := ir.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("scan: ids[%d]: %w", k, err)
			}
			ids = append(ids, id)
		}
		return Scan{EntityType: s.Scan.Entity, IDs: ids, Via: s.Scan.Via, Labels: s.As}, nil

	case s.Filter != nil:
		pred, err := buildPredicate(*s.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		return Filter{Predicate: pred, Labels: s.As}, nil

	case s.Order != nil:
		if len(s.Order) == 0 {
			return nil, fmt.Errorf("order: at least one key is required")
		}
		keys := make([]OrderKey, len(s.Order))
		for k, spec := range s.Order {
			dir := Direction(spec.Dir)
			if dir == "" {
				dir = Asc
			}
			if dir != Asc && dir != Desc {
				return nil, fmt.Errorf("order: invalid direction %q", spec.Dir)
			}
			if spec.Key == "" {
				return nil, fmt.Errorf("order: key is required")
			}
			keys[k] = OrderKey{Key: spec.Key, Func: spec.Func, Direction: dir}
		}
		return Order{Keys: keys, Labels: s.As}, nil

	case s.Range != nil:
		limit := int64(-1)
		if s.Range.Limit != nil {
			limit = *s.Range.Limit
			if limit < 0 {
				return nil, fmt.Errorf("range: limit must be >= 0")
			}
		}
		if s.Range.Offset < 0 {
			return nil, fmt.Errorf("range: offset must be >= 0")
		}
		return Range{Offset: s.Range.Offset, Limit: limit, Labels: s.As}, nil

	case s.Path != nil:
		return PathCapture{By: s.Path.By}, nil

	case s.Tree != nil:
		return TreeCapture{By: s.Tree.By}, nil

	default:
		arms := make([][]Operation, len(s.Branch))
		for k, armSteps := range s.Branch {
			ops, err := buildOps(armSteps)
			if err != nil {
				return nil, fmt.Errorf("branch arm %d: %w", k, err)
			}
			arms[k] = ops
		}
		return NewBranch(arms...), nil
	}
}

func buildPredicate(f FilterSpec) (Predicate, error) {
	if len(f.All) > 0 {
		preds := make([]Predicate, len(f.All))
		for i, sub := range f.All {
			p, err := buildPredicate(sub)
			if err != nil {
				return nil, fmt.Errorf("all[%d]: %w", i, err)
			}
			preds[i] = p
		}
		return And{Predicates: preds}, nil
	}

	if f.Key == "" {
		return nil, fmt.Errorf("key is required")
	}

	if f.Within != nil {
		values := make([]ir.IRValue, len(f.Within))
		for i, raw := range f.Within {
			v, err := ir.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("within[%d]: %w", i, err)
			}
			values[i] = v
		}
		return Within{Key: f.Key, Values: values}, nil
	}

	op := CompareOp(f.Op)
	if op == "" {
		op = OpEq
	}
	if !op.Valid() {
		return nil, fmt.Errorf("invalid operator %q", f.Op)
	}
	v, err := ir.FromAny(f.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	return Compare{Key: f.Key, Op: op, Value: v}, nil
}
