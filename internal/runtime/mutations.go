package runtime

import (
	"fmt"
	"reflect"

	"github.com/aretw0/lattice/pkg/domain"
)

// Insert places node at index among the children of parentID, or among the
// roots when parentID is empty. The index is clamped to [0, len]. Empty ids in
// the inserted subtree are assigned by the id generator.
func (s *Store) Insert(index int, node domain.Node, parentID domain.ID) (domain.Tree, error) {
	node = s.withIDs(node)

	if err := validKinds(node); err != nil {
		return s.reject(domain.OpInsert, node.ID, err)
	}
	if parentID != "" {
		if _, ok := s.forest.get(parentID); !ok {
			return s.noop(domain.OpInsert, node.ID, fmt.Errorf("%w: parent %s", domain.ErrNodeNotFound, parentID))
		}
	}
	if dups := s.forest.collisions(node); len(dups) > 0 {
		return s.reject(domain.OpInsert, node.ID, fmt.Errorf("%w: %v", domain.ErrDuplicateID, dups))
	}

	landing := 0
	if parentID != "" {
		landing = s.forest.depth(parentID) + 1
	}
	if landing+valueHeight(node) > s.maxDepth {
		return s.reject(domain.OpInsert, node.ID, fmt.Errorf("%w: limit %d", domain.ErrTooDeep, s.maxDepth))
	}

	if !s.permissive {
		if err := s.rules.CheckTree(node, s.landingKinds(s.forest, parentID)); err != nil {
			return s.reject(domain.OpInsert, node.ID, err)
		}
	}

	prev := s.Tree()
	if _, err := s.forest.add(node, parentID, index); err != nil {
		return s.reject(domain.OpInsert, node.ID, err)
	}
	return s.commit(domain.OpInsert, node.ID, prev), nil
}

// Remove deletes id and its whole subtree. A missing id is a no-op.
func (s *Store) Remove(id domain.ID) (domain.Tree, error) {
	if _, ok := s.forest.get(id); !ok {
		return s.noop(domain.OpRemove, id, nil)
	}

	prev := s.Tree()
	if _, _, ok := s.forest.detach(id); !ok {
		return s.reject(domain.OpRemove, id, fmt.Errorf("%w: %s is not attached", domain.ErrIntegrity, id))
	}
	removed := s.forest.drop(id)
	s.logger.Debug("Removed subtree", "node_id", id, "removed", removed)
	return s.commit(domain.OpRemove, id, prev), nil
}

// Update merges patch into the node's attributes at the top level. A nil
// value deletes the key. Id, kind and children are never touched. A missing
// id is a no-op.
func (s *Store) Update(id domain.ID, patch domain.Attributes) (domain.Tree, error) {
	e, ok := s.forest.get(id)
	if !ok {
		return s.noop(domain.OpUpdate, id, nil)
	}

	merged := e.attrs.Merge(patch)
	if len(merged) == 0 {
		merged = nil
	}
	if reflect.DeepEqual(merged, e.attrs) || (merged == nil && len(e.attrs) == 0) {
		return s.noop(domain.OpUpdate, id, nil)
	}

	prev := s.Tree()
	e.attrs = merged
	return s.commit(domain.OpUpdate, id, prev), nil
}

func (s *Store) reject(op domain.Op, id domain.ID, err error) (domain.Tree, error) {
	s.logger.Warn("Rejected mutation", "op", op, "node_id", id, "err", err)
	s.report(op, id, domain.OutcomeRejected, err)
	return s.Tree(), err
}

func (s *Store) noop(op domain.Op, id domain.ID, err error) (domain.Tree, error) {
	s.logger.Debug("Mutation had no effect", "op", op, "node_id", id, "err", err)
	s.report(op, id, domain.OutcomeNoop, err)
	return s.Tree(), err
}

func valueHeight(n domain.Node) int {
	h := 0
	n.Walk(func(_ domain.Node, depth int) bool {
		if depth+1 > h {
			h = depth + 1
		}
		return true
	})
	return h
}
