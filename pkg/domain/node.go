package domain

import "maps"

// ID identifies a node. It is unique across a whole tree and never changes.
type ID string

// Attributes is the kind-specific configuration bag of a node.
// Values are plain data (strings, numbers, bools, slices and maps) so the bag
// survives a JSON or YAML round trip.
type Attributes map[string]any

// Node is one block or field of a document tree.
type Node struct {
	ID         ID         `json:"id" yaml:"id"`
	Kind       Kind       `json:"kind" yaml:"kind"`
	Attributes Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children   []Node     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Clone returns a deep copy of the attribute bag.
// Nested maps and slices are copied; scalar values are shared.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge applies patch on top of a at the top level only and returns the result.
// A nil value in patch deletes the key. a is not modified.
func (a Attributes) Merge(patch Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns the attribute as a bool, or false when absent or not a bool.
func (a Attributes) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case Attributes:
		return t.Clone()
	case map[string]string:
		return maps.Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of the node and its subtree.
func (n Node) Clone() Node {
	out := Node{
		ID:         n.ID,
		Kind:       n.Kind,
		Attributes: n.Attributes.Clone(),
	}
	if len(n.Children) > 0 {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func (n Node) Walk(fn func(node Node, depth int) bool) {
	type frame struct {
		node  Node
		depth int
	}
	stack := []frame{{n, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Count returns the number of nodes in the subtree rooted at n, n included.
func (n Node) Count() int {
	total := 0
	n.Walk(func(Node, int) bool {
		total++
		return true
	})
	return total
}
