package domain

// Tree is an immutable snapshot of the canonical document tree.
// Every committed mutation produces a new Tree with a higher Generation.
type Tree struct {
	Generation uint64 `json:"generation" yaml:"generation"`
	Roots      []Node `json:"roots" yaml:"roots"`
}

// Walk visits every node depth-first in document order.
// Returning false from fn skips the node's children.
func (t Tree) Walk(fn func(node Node, depth int) bool) {
	for _, r := range t.Roots {
		r.Walk(fn)
	}
}

// Count returns the total number of nodes in the tree.
func (t Tree) Count() int {
	total := 0
	for _, r := range t.Roots {
		total += r.Count()
	}
	return total
}

// Find returns the node with the given id.
func (t Tree) Find(id ID) (Node, bool) {
	var found Node
	ok := false
	t.Walk(func(n Node, _ int) bool {
		if ok {
			return false
		}
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Position describes where a node sits: its parent ("" for roots) and its index among siblings.
type Position struct {
	Parent ID
	Index  int
	Depth  int
}

// Positions indexes every node of the tree by id.
func (t Tree) Positions() map[ID]Position {
	out := make(map[ID]Position)
	type frame struct {
		nodes  []Node
		parent ID
		depth  int
	}
	stack := []frame{{t.Roots, "", 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, n := range f.nodes {
			out[n.ID] = Position{Parent: f.parent, Index: i, Depth: f.depth}
			if len(n.Children) > 0 {
				stack = append(stack, frame{n.Children, n.ID, f.depth + 1})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	out := Tree{Generation: t.Generation}
	if t.Roots != nil {
		out.Roots = make([]Node, len(t.Roots))
		for i, r := range t.Roots {
			out.Roots[i] = r.Clone()
		}
	}
	return out
}
