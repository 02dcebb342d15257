package exec

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// Matches evaluates a predicate against an element. A null property or a
// null literal never satisfies a comparison.
func Matches(p traversal.Predicate, el Element) (bool, error) {
	switch pred := p.(type) {
	case traversal.Compare:
		v := el.Value(pred.Key)
		if ir.KindOf(v) == ir.KindNull || ir.KindOf(pred.Value) == ir.KindNull {
			return false, nil
		}
		c := ir.Compare(v, pred.Value)
		switch pred.Op {
		case traversal.OpEq:
			return ir.Equal(v, pred.Value), nil
		case traversal.OpNeq:
			return !ir.Equal(v, pred.Value), nil
		case traversal.OpLt:
			return c < 0, nil
		case traversal.OpLte:
			return c <= 0, nil
		case traversal.OpGt:
			return c > 0, nil
		case traversal.OpGte:
			return c >= 0, nil
		default:
			return false, fmt.Errorf("unsupported operator %q", pred.Op)
		}
	case traversal.Within:
		v := el.Value(pred.Key)
		if ir.KindOf(v) == ir.KindNull {
			return false, nil
		}
		for _, candidate := range pred.Values {
			if ir.Equal(v, candidate) {
				return true, nil
			}
		}
		return false, nil
	case traversal.And:
		for _, sub := range pred.Predicates {
			ok, err := Matches(sub, el)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// orderValue computes the sort value of one key for an element.
func orderValue(k traversal.OrderKey, el Element) (ir.IRValue, error) {
	v := el.Value(k.Key)
	if k.IsPlainColumn() {
		return v, nil
	}
	s, isString := v.(ir.IRString)
	switch k.Func {
	case "lower":
		if isString {
			return ir.IRString(strings.ToLower(string(s))), nil
		}
		return v, nil
	case "upper":
		if isString {
			return ir.IRString(strings.ToUpper(string(s))), nil
		}
		return v, nil
	case "length":
		if isString {
			return ir.IRInt(utf8.RuneCountInString(string(s))), nil
		}
		return ir.IRNull{}, nil
	default:
		return nil, fmt.Errorf("unsupported order function %q", k.Func)
	}
}

// CheckOrderKeys rejects keys whose function cannot be evaluated.
func CheckOrderKeys(keys []traversal.OrderKey) error {
	for _, k := range keys {
		if _, err := orderValue(k, Element{}); err != nil {
			return err
		}
	}
	return nil
}

// sortRows stably sorts rows by keys. Ties keep fetch order.
func sortRows(rows []*Row, keys []traversal.OrderKey) error {
	if err := CheckOrderKeys(keys); err != nil {
		return err
	}
	values := make([][]ir.IRValue, len(rows))
	for i, r := range rows {
		values[i] = make([]ir.IRValue, len(keys))
		for j, k := range keys {
			values[i][j], _ = orderValue(k, r.Current)
		}
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := values[idx[a]], values[idx[b]]
		for j, k := range keys {
			c := ir.Compare(va[j], vb[j])
			if c == 0 {
				continue
			}
			if k.Direction == traversal.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]*Row, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
	return nil
}

// sliceRange applies a range to a materialized row list.
func sliceRange(rows []*Row, r traversal.Range) []*Row {
	if r.Offset >= int64(len(rows)) {
		return nil
	}
	rows = rows[r.Offset:]
	if r.Limit >= 0 && r.Limit < int64(len(rows)) {
		rows = rows[:r.Limit]
	}
	return rows
}
