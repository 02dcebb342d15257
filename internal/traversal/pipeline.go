package traversal

import (
	"fmt"
	"strings"
)

// Pipeline is an ordered, mutable sequence of operations. Arms of a Branch
// are pipelines that remember the enclosing pipeline and the position of
// the Branch within it.
type Pipeline struct {
	ops       []Operation
	parent    *Pipeline
	parentPos int
}

// New creates a pipeline over ops and links any branch arms to it.
func New(ops ...Operation) *Pipeline {
	p := &Pipeline{ops: append([]Operation(nil), ops...), parentPos: -1}
	p.relink()
	return p
}

// NewBranch builds a Branch whose arms are new pipelines over each op list.
func NewBranch(arms ...[]Operation) Branch {
	b := Branch{Arms: make([]*Pipeline, len(arms))}
	for i, ops := range arms {
		b.Arms[i] = New(ops...)
	}
	return b
}

// relink points every branch arm at p with the current branch position.
func (p *Pipeline) relink() {
	for i, op := range p.ops {
		if b, ok := op.(Branch); ok {
			for _, arm := range b.Arms {
				arm.parent = p
				arm.parentPos = i
			}
		}
	}
}

// Len returns the number of operations.
func (p *Pipeline) Len() int {
	return len(p.ops)
}

// At returns the operation at i.
func (p *Pipeline) At(i int) Operation {
	return p.ops[i]
}

// Ops returns a copy of the operation slice.
func (p *Pipeline) Ops() []Operation {
	return append([]Operation(nil), p.ops...)
}

// Parent returns the enclosing pipeline and the index of the Branch that
// holds p. Root pipelines return (nil, -1).
func (p *Pipeline) Parent() (*Pipeline, int) {
	return p.parent, p.parentPos
}

// Replace swaps the operation at i in O(1).
func (p *Pipeline) Replace(i int, op Operation) {
	if i < 0 || i >= len(p.ops) {
		panic(fmt.Sprintf("traversal: replace index %d out of range [0,%d)", i, len(p.ops)))
	}
	p.ops[i] = op
	if _, ok := op.(Branch); ok {
		p.relink()
	}
}

// Splice replaces the n operations starting at from with op.
func (p *Pipeline) Splice(from, n int, op Operation) {
	if from < 0 || n < 1 || from+n > len(p.ops) {
		panic(fmt.Sprintf("traversal: splice [%d,%d) out of range [0,%d)", from, from+n, len(p.ops)))
	}
	if n == 1 {
		p.Replace(from, op)
		return
	}
	out := make([]Operation, 0, len(p.ops)-n+1)
	out = append(out, p.ops[:from]...)
	out = append(out, op)
	out = append(out, p.ops[from+n:]...)
	p.ops = out
	p.relink()
}

// HasCaptureFrom reports whether a path or tree capture occurs at or after
// position i, including in the enclosing pipelines after the branch that
// holds p. Captures nested inside other branch arms count as downstream.
func (p *Pipeline) HasCaptureFrom(i int) bool {
	for j := i; j < len(p.ops); j++ {
		if IsCapture(p.ops[j]) {
			return true
		}
		if b, ok := p.ops[j].(Branch); ok {
			for _, arm := range b.Arms {
				if arm.HasCaptureFrom(0) {
					return true
				}
			}
		}
	}
	if p.parent != nil {
		return p.parent.HasCaptureFrom(p.parentPos + 1)
	}
	return false
}

// Clone returns a deep copy. Operations are values, so only arms need
// copying.
func (p *Pipeline) Clone() *Pipeline {
	ops := make([]Operation, len(p.ops))
	for i, op := range p.ops {
		if b, ok := op.(Branch); ok {
			nb := Branch{Arms: make([]*Pipeline, len(b.Arms))}
			for k, arm := range b.Arms {
				nb.Arms[k] = arm.Clone()
			}
			op = nb
		}
		ops[i] = op
	}
	return New(ops...)
}

// String renders the pipeline in a gremlin-like dotted form.
func (p *Pipeline) String() string {
	parts := make([]string, len(p.ops))
	for i, op := range p.ops {
		parts[i] = Render(op)
	}
	return strings.Join(parts, ".")
}

// Render renders a single operation.
func Render(op Operation) string {
	var s string
	switch o := op.(type) {
	case Scan:
		args := []string{o.EntityType}
		for _, id := range o.IDs {
			args = append(args, literal(id))
		}
		if o.Via != "" {
			s = fmt.Sprintf("via(%s).scan(%s)", o.Via, strings.Join(args, ", "))
		} else {
			s = fmt.Sprintf("scan(%s)", strings.Join(args, ", "))
		}
	case Filter:
		s = fmt.Sprintf("filter(%s)", o.Predicate)
	case Order:
		keys := make([]string, len(o.Keys))
		for i, k := range o.Keys {
			name := k.Key
			if k.Func != "" {
				name = fmt.Sprintf("%s(%s)", k.Func, k.Key)
			}
			keys[i] = fmt.Sprintf("%s %s", name, k.Direction)
		}
		s = fmt.Sprintf("order(%s)", strings.Join(keys, ", "))
	case Range:
		s = fmt.Sprintf("range(%d, %d)", o.Offset, o.Limit)
	case PathCapture:
		s = fmt.Sprintf("path(%s)", strings.Join(o.By, ", "))
	case TreeCapture:
		s = fmt.Sprintf("tree(%s)", strings.Join(o.By, ", "))
	case Branch:
		arms := make([]string, len(o.Arms))
		for i, arm := range o.Arms {
			arms[i] = arm.String()
		}
		s = fmt.Sprintf("branch(%s)", strings.Join(arms, " | "))
	case fmt.Stringer:
		s = o.String()
	default:
		s = string(op.Kind())
	}
	if labels := LabelsOf(op); len(labels) > 0 {
		s += fmt.Sprintf(".as(%s)", strings.Join(labels, ", "))
	}
	return s
}

// Cursor is a positional view over a pipeline with read-ahead.
type Cursor struct {
	p   *Pipeline
	pos int
}

// Cursor returns a cursor positioned at i.
func (p *Pipeline) Cursor(i int) *Cursor {
	return &Cursor{p: p, pos: i}
}

// Pipeline returns the pipeline under the cursor.
func (c *Cursor) Pipeline() *Pipeline {
	return c.p
}

// Pos returns the current position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Peek returns the operation at the current position.
func (c *Cursor) Peek() (Operation, bool) {
	return c.PeekAt(0)
}

// PeekAt returns the operation offset positions ahead of the cursor.
func (c *Cursor) PeekAt(offset int) (Operation, bool) {
	i := c.pos + offset
	if i < 0 || i >= len(c.p.ops) {
		return nil, false
	}
	return c.p.ops[i], true
}

// Next returns the current operation and advances.
func (c *Cursor) Next() (Operation, bool) {
	op, ok := c.Peek()
	if ok {
		c.pos++
	}
	return op, ok
}
