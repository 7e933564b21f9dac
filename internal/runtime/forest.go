package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/domain"
)

// entry is one arena slot. Children are ids, so re-parenting never copies a subtree.
type entry struct {
	id       domain.ID
	kind     domain.Kind
	attrs    domain.Attributes
	parent   domain.ID // "" for roots
	children []domain.ID

	// detached is set while the entry sits outside every sibling list.
	detached bool
}

// forest is the flat arena behind a Store: every node keyed by id plus the
// ordered root sequence. All traversals use explicit stacks.
type forest struct {
	nodes map[domain.ID]*entry
	roots []domain.ID
}

func newForest() *forest {
	return &forest{nodes: make(map[domain.ID]*entry)}
}

func (f *forest) get(id domain.ID) (*entry, bool) {
	e, ok := f.nodes[id]
	return e, ok
}

// list returns the sibling list owned by parent ("" for the root sequence).
func (f *forest) list(parent domain.ID) (*[]domain.ID, bool) {
	if parent == "" {
		return &f.roots, true
	}
	e, ok := f.nodes[parent]
	if !ok {
		return nil, false
	}
	return &e.children, true
}

// attached reports whether id is reachable from the root sequence by parent links.
func (f *forest) attached(id domain.ID) bool {
	cur := id
	for steps := 0; steps <= len(f.nodes); steps++ {
		e, ok := f.nodes[cur]
		if !ok || e.detached {
			return false
		}
		if e.parent == "" {
			return true
		}
		cur = e.parent
	}
	return false
}

// ancestors returns the parent chain of id, nearest first. Roots have none.
func (f *forest) ancestors(id domain.ID) []domain.ID {
	var out []domain.ID
	e, ok := f.nodes[id]
	for ok && !e.detached && e.parent != "" && len(out) <= len(f.nodes) {
		out = append(out, e.parent)
		e, ok = f.nodes[e.parent]
	}
	return out
}

// depth returns the number of ancestors of id.
func (f *forest) depth(id domain.ID) int {
	return len(f.ancestors(id))
}

// subtree returns id and its descendants in document order.
func (f *forest) subtree(id domain.ID) []domain.ID {
	var out []domain.ID
	stack := []domain.ID{id}
	for len(stack) > 0 && len(out) <= len(f.nodes) {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e, ok := f.nodes[cur]
		if !ok {
			continue
		}
		out = append(out, cur)
		for i := len(e.children) - 1; i >= 0; i-- {
			stack = append(stack, e.children[i])
		}
	}
	return out
}

// height returns the number of levels in the subtree rooted at id, id included.
func (f *forest) height(id domain.ID) int {
	base := f.depth(id)
	tallest := 0
	for _, d := range f.subtree(id) {
		if h := f.depth(d) - base + 1; h > tallest {
			tallest = h
		}
	}
	return tallest
}

// kinds returns the distinct kinds present in the subtree rooted at id.
func (f *forest) kinds(id domain.ID) []domain.Kind {
	var out []domain.Kind
	for _, d := range f.subtree(id) {
		k := f.nodes[d].kind
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// detach removes id from its sibling list and returns where it was.
// The entry and its subtree stay in the arena.
func (f *forest) detach(id domain.ID) (parent domain.ID, index int, ok bool) {
	e, exists := f.nodes[id]
	if !exists || e.detached {
		return "", 0, false
	}
	siblings, exists := f.list(e.parent)
	if !exists {
		return "", 0, false
	}
	index = slices.Index(*siblings, id)
	if index < 0 {
		return "", 0, false
	}
	*siblings = slices.Delete(*siblings, index, index+1)
	parent = e.parent
	e.parent = ""
	e.detached = true
	return parent, index, true
}

// attach splices id into parent's sibling list at index, clamped to [0, len].
func (f *forest) attach(id, parent domain.ID, index int) (int, error) {
	e, ok := f.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	siblings, ok := f.list(parent)
	if !ok {
		return 0, fmt.Errorf("%w: parent %s", domain.ErrNodeNotFound, parent)
	}
	index = clamp(index, len(*siblings))
	*siblings = slices.Insert(*siblings, index, id)
	e.parent = parent
	e.detached = false
	return index, nil
}

// add places a value subtree into the arena and attaches its root.
// Ids must already be unique; callers check with collisions first.
func (f *forest) add(n domain.Node, parent domain.ID, index int) (int, error) {
	type frame struct {
		node   domain.Node
		parent domain.ID
	}
	stack := []frame{{n, ""}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := &entry{
			id:     fr.node.ID,
			kind:   fr.node.Kind,
			attrs:  fr.node.Attributes.Clone(),
			parent: fr.parent,
		}
		if fr.node.ID == n.ID {
			e.detached = true
		}
		for _, c := range fr.node.Children {
			e.children = append(e.children, c.ID)
		}
		f.nodes[e.id] = e
		for i := len(fr.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{fr.node.Children[i], e.id})
		}
	}
	idx, err := f.attach(n.ID, parent, index)
	if err != nil {
		for _, id := range f.subtree(n.ID) {
			delete(f.nodes, id)
		}
		return 0, err
	}
	return idx, nil
}

// drop deletes a detached subtree from the arena.
func (f *forest) drop(id domain.ID) int {
	ids := f.subtree(id)
	for _, d := range ids {
		delete(f.nodes, d)
	}
	return len(ids)
}

// collisions returns ids of n's subtree that already exist in the arena or repeat within n.
func (f *forest) collisions(n domain.Node) []domain.ID {
	var out []domain.ID
	seen := make(map[domain.ID]struct{})
	n.Walk(func(c domain.Node, _ int) bool {
		if _, dup := seen[c.ID]; dup {
			out = append(out, c.ID)
		} else if _, exists := f.nodes[c.ID]; exists {
			out = append(out, c.ID)
		}
		seen[c.ID] = struct{}{}
		return true
	})
	return out
}

// build materializes the subtree rooted at id as a value.
// Nodes are visited in pre-order and assembled in reverse so every child is
// complete before its parent copies it.
func (f *forest) build(id domain.ID) domain.Node {
	order := f.subtree(id)
	built := make(map[domain.ID]domain.Node, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		e := f.nodes[order[i]]
		n := domain.Node{
			ID:         e.id,
			Kind:       e.kind,
			Attributes: e.attrs.Clone(),
		}
		if len(e.children) > 0 {
			n.Children = make([]domain.Node, 0, len(e.children))
			for _, c := range e.children {
				n.Children = append(n.Children, built[c])
				delete(built, c)
			}
		}
		built[e.id] = n
	}
	return built[id]
}

// snapshot materializes the whole tree.
func (f *forest) snapshot() []domain.Node {
	out := make([]domain.Node, 0, len(f.roots))
	for _, r := range f.roots {
		out = append(out, f.build(r))
	}
	return out
}

// scan walks from the roots and counts how often each id is reached.
// A healthy arena reaches every entry exactly once.
func (f *forest) scan() (map[domain.ID]int, error) {
	seen := make(map[domain.ID]int, len(f.nodes))
	stack := slices.Clone(f.roots)
	slices.Reverse(stack)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[id]++
		if seen[id] > 1 {
			return seen, fmt.Errorf("%w: %s reached twice", domain.ErrIntegrity, id)
		}
		e, ok := f.nodes[id]
		if !ok {
			return seen, fmt.Errorf("%w: dangling reference %s", domain.ErrIntegrity, id)
		}
		for i := len(e.children) - 1; i >= 0; i-- {
			c := e.children[i]
			if ce, ok := f.nodes[c]; ok && ce.parent != id {
				return seen, fmt.Errorf("%w: %s listed under %s but points to %s", domain.ErrIntegrity, c, id, ce.parent)
			}
			stack = append(stack, c)
		}
	}
	return seen, nil
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// txn records inverse operations so a multi-step edit can be undone exactly.
type txn struct {
	f    *forest
	undo []func()
}

func (f *forest) begin() *txn {
	return &txn{f: f}
}

func (tx *txn) detach(id domain.ID) (domain.ID, int, bool) {
	parent, index, ok := tx.f.detach(id)
	if ok {
		tx.undo = append(tx.undo, func() {
			_, _ = tx.f.attach(id, parent, index)
		})
	}
	return parent, index, ok
}

func (tx *txn) attach(id, parent domain.ID, index int) (int, error) {
	at, err := tx.f.attach(id, parent, index)
	if err == nil {
		tx.undo = append(tx.undo, func() {
			tx.f.detach(id)
		})
	}
	return at, err
}

// rollback replays the undo log in reverse.
func (tx *txn) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}
