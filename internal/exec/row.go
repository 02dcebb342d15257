// Package exec produces rows from traversal pipelines.
//
// Raw operations run through a reference interpreter over the store.
// Compiled operations run the statements their plan node compiles to and
// apply whatever the node could not push to the store in memory. Both
// produce the same rows for the same data.
package exec

import (
	"fmt"
	"slices"

	"github.com/roach88/sqlgraph/internal/ir"
)

// Element is one entity read from the store. Props holds every property
// of the entity type, null when unset.
type Element struct {
	Entity string
	Table  string
	ID     ir.IRValue
	Props  ir.IRObject
}

// Key identifies the element across tables.
func (e Element) Key() string {
	return fmt.Sprintf("%s/%s/%s", e.Entity, e.Table, ir.String(e.ID))
}

// Value returns a property, the id for "id", or null when absent.
func (e Element) Value(key string) ir.IRValue {
	if key == "id" {
		return e.ID
	}
	if v, ok := e.Props[key]; ok {
		return v
	}
	return ir.IRNull{}
}

// PathEntry is one element on a row's path with the labels it was given.
type PathEntry struct {
	Labels  []string
	Element Element
}

// Row is one result flowing between stages. Value is set by captures.
type Row struct {
	Current Element
	Path    []PathEntry
	Value   any
}

// withEntry returns a copy of r positioned at el with el appended to the
// path.
func (r *Row) withEntry(el Element, labels []string) *Row {
	path := make([]PathEntry, 0, len(r.Path)+1)
	path = append(path, r.Path...)
	path = append(path, PathEntry{Labels: labels, Element: el})
	return &Row{Current: el, Path: path}
}

// withLabels returns a copy of r whose last path entry also carries labels.
func (r *Row) withLabels(labels []string) *Row {
	if len(labels) == 0 || len(r.Path) == 0 {
		return r
	}
	path := append([]PathEntry(nil), r.Path...)
	last := &path[len(path)-1]
	merged := append([]string(nil), last.Labels...)
	for _, l := range labels {
		if !slices.Contains(merged, l) {
			merged = append(merged, l)
		}
	}
	last.Labels = merged
	return &Row{Current: r.Current, Path: path, Value: r.Value}
}

// TreeNode is one level of a captured tree. Value is an Element, or a
// projected ir.IRValue when the capture has modulators.
type TreeNode struct {
	Value    any
	Children []*TreeNode
}

// Tree is the result of a tree capture: a forest keyed by first appearance.
type Tree struct {
	Roots []*TreeNode
}

func treeKey(v any) string {
	switch val := v.(type) {
	case Element:
		return "e:" + val.Key()
	case ir.IRValue:
		return "v:" + ir.String(val)
	default:
		return fmt.Sprintf("?:%v", val)
	}
}

// add merges a path of values into the forest.
func (t *Tree) add(values []any) {
	level := &t.Roots
	for _, v := range values {
		key := treeKey(v)
		var node *TreeNode
		for _, n := range *level {
			if treeKey(n.Value) == key {
				node = n
				break
			}
		}
		if node == nil {
			node = &TreeNode{Value: v}
			*level = append(*level, node)
		}
		level = &node.Children
	}
}
