package domain

import (
	"reflect"
	"slices"
)

// TreeDiff represents the changes between two trees.
// It is designed to be serialized to JSON for partial updates on the client.
type TreeDiff struct {
	Generation uint64 `json:"generation"`

	// Added and Removed list ids present in only one of the trees.
	Added   []ID `json:"added,omitempty"`
	Removed []ID `json:"removed,omitempty"`

	// Moved lists ids whose parent or sibling index changed.
	Moved []ID `json:"moved,omitempty"`

	// Updated lists ids whose attributes changed.
	Updated []ID `json:"updated,omitempty"`
}

// Diff calculates the difference between oldTree and newTree.
// It returns nil when the trees hold the same nodes in the same places.
func Diff(oldTree, newTree Tree) *TreeDiff {
	oldPos := oldTree.Positions()
	newPos := newTree.Positions()
	oldNodes := index(oldTree)
	newNodes := index(newTree)

	diff := &TreeDiff{Generation: newTree.Generation}

	for id, np := range newPos {
		op, exists := oldPos[id]
		if !exists {
			diff.Added = append(diff.Added, id)
			continue
		}
		if op.Parent != np.Parent || op.Index != np.Index {
			diff.Moved = append(diff.Moved, id)
		}
		if !reflect.DeepEqual(oldNodes[id].Attributes, newNodes[id].Attributes) {
			diff.Updated = append(diff.Updated, id)
		}
	}
	for id := range oldPos {
		if _, exists := newPos[id]; !exists {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}

	// Map iteration order is random; keep the payload stable for clients and tests.
	slices.Sort(diff.Added)
	slices.Sort(diff.Removed)
	slices.Sort(diff.Moved)
	slices.Sort(diff.Updated)
	return diff
}

func index(t Tree) map[ID]Node {
	out := make(map[ID]Node)
	t.Walk(func(n Node, _ int) bool {
		out[n.ID] = n
		return true
	})
	return out
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *TreeDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Moved) == 0 &&
		len(d.Updated) == 0
}
