package traversal

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/ir"
)

// Predicate is a property condition. Sealed to this package.
type Predicate interface {
	predicateNode()
	String() string
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "eq"
	OpNeq CompareOp = "neq"
	OpLt  CompareOp = "lt"
	OpLte CompareOp = "lte"
	OpGt  CompareOp = "gt"
	OpGte CompareOp = "gte"
)

// Symbol returns the operator as written in expressions.
func (op CompareOp) Symbol() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return string(op)
	}
}

// Valid reports whether op is one of the known operators.
func (op CompareOp) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// Compare holds when the property Key compares to Value under Op.
// A missing property never satisfies a comparison.
type Compare struct {
	Key   string
	Op    CompareOp
	Value ir.IRValue
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Key, c.Op.Symbol(), literal(c.Value))
}

// Within holds when the property Key equals any of Values.
type Within struct {
	Key    string
	Values []ir.IRValue
}

func (Within) predicateNode() {}

func (w Within) String() string {
	parts := make([]string, len(w.Values))
	for i, v := range w.Values {
		parts[i] = literal(v)
	}
	return fmt.Sprintf("%s within [%s]", w.Key, strings.Join(parts, ", "))
}

// And holds when all Predicates hold. Empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (a And) String() string {
	if len(a.Predicates) == 0 {
		return "true"
	}
	parts := make([]string, len(a.Predicates))
	for i, p := range a.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, " and ")
}

func literal(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return ir.String(v)
}
