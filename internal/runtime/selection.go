package runtime

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// selection caches the node being edited by value. The arena is the source of
// truth; refreshSelection re-reads it after every commit.
type selection struct {
	id   domain.ID
	node domain.Node
	ok   bool
}

// Select marks id as the node being edited and returns its current value.
func (s *Store) Select(id domain.ID) (domain.Node, error) {
	n, ok := s.Find(id)
	if !ok {
		s.report(domain.OpSelect, id, domain.OutcomeNoop, domain.ErrNodeNotFound)
		return domain.Node{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	s.selection = selection{id: id, node: n, ok: true}
	s.report(domain.OpSelect, id, domain.OutcomeCommitted, nil)
	return n.Clone(), nil
}

// ClearSelection drops the current selection, if any.
func (s *Store) ClearSelection() {
	s.selection = selection{}
}

// Selection returns a copy of the selected node.
func (s *Store) Selection() (domain.Node, bool) {
	if !s.selection.ok {
		return domain.Node{}, false
	}
	return s.selection.node.Clone(), true
}

// SelectedID returns the id of the selected node, or "".
func (s *Store) SelectedID() domain.ID {
	if !s.selection.ok {
		return ""
	}
	return s.selection.id
}

// refreshSelection keeps the cached value in step with the arena: it is
// cleared when the node is gone and re-read otherwise.
func (s *Store) refreshSelection() {
	if !s.selection.ok {
		return
	}
	if _, ok := s.forest.get(s.selection.id); !ok {
		s.logger.Debug("Selection cleared", "node_id", s.selection.id)
		s.selection = selection{}
		return
	}
	s.selection.node = s.forest.build(s.selection.id)
}
