package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/domain"
)

// Move relocates activeID relative to overID. With inside set, the node is
// appended to overID's children; otherwise it takes overID's place among
// overID's siblings, pushing overID and the following siblings down by one.
//
// The move is validated before anything is touched, applied as a detach plus
// attach inside an undo-logged transaction, then checked by the guard. If the
// guard fails the transaction is rolled back and the pre-move tree is kept.
func (s *Store) Move(activeID, overID domain.ID, inside bool) (domain.Tree, error) {
	if _, ok := s.forest.get(activeID); !ok {
		return s.noop(domain.OpMove, activeID, nil)
	}
	if activeID == overID {
		return s.noop(domain.OpMove, activeID, nil)
	}

	if err := s.validateMove(activeID, overID, inside); err != nil {
		s.logger.Warn("Move rejected",
			"node_id", activeID,
			"over_id", overID,
			"inside", inside,
			"err", err,
		)
		s.report(domain.OpMove, activeID, domain.OutcomeRejected, err)
		return s.Tree(), err
	}

	prev := s.Tree()
	expected := s.Count()
	tx := s.forest.begin()

	oldParent, oldIndex, ok := tx.detach(activeID)
	if !ok {
		return s.abort(tx, prev, activeID, overID, fmt.Errorf("%w: %s is not attached", domain.ErrIntegrity, activeID))
	}

	newIndex, placeErr := s.place(tx, activeID, overID, inside)

	if err := s.guard(activeID, expected); err != nil || placeErr != nil {
		cause := placeErr
		if cause == nil {
			cause = err
		}
		return s.abort(tx, prev, activeID, overID, cause)
	}

	if e, _ := s.forest.get(activeID); e.parent == oldParent && newIndex == oldIndex {
		// Spliced back into its own slot.
		return s.noop(domain.OpMove, activeID, nil)
	}

	return s.commit(domain.OpMove, activeID, prev), nil
}

// validateMove applies the structural rules to the landing position before
// any mutation. A missing target is left for the guard to catch.
func (s *Store) validateMove(activeID, overID domain.ID, inside bool) error {
	over, ok := s.forest.get(overID)
	if !ok {
		return nil
	}

	landingParent := over.parent
	if inside {
		landingParent = overID
	}

	depth := 0
	if landingParent != "" {
		depth = s.forest.depth(landingParent) + 1
	}
	if depth+s.forest.height(activeID) > s.maxDepth {
		return fmt.Errorf("%w: limit %d", domain.ErrTooDeep, s.maxDepth)
	}

	return s.rules.Check(s.forest.kinds(activeID), s.landingKinds(s.forest, landingParent))
}

// place attaches the detached activeID at the drop target. It fails when the
// target is no longer reachable, which happens for stale ids and for targets
// that sat inside the extracted subtree.
func (s *Store) place(tx *txn, activeID, overID domain.ID, inside bool) (int, error) {
	over, ok := s.forest.get(overID)
	if !ok {
		return 0, fmt.Errorf("%w: drop target %s", domain.ErrNodeNotFound, overID)
	}
	if !s.forest.attached(overID) {
		if slices.Contains(s.forest.subtree(activeID), overID) {
			return 0, fmt.Errorf("%w: %s is inside %s", domain.ErrCycle, overID, activeID)
		}
		return 0, fmt.Errorf("%w: drop target %s is detached", domain.ErrNodeNotFound, overID)
	}

	if inside {
		return tx.attach(activeID, overID, len(over.children))
	}

	siblings, _ := s.forest.list(over.parent)
	return tx.attach(activeID, over.parent, slices.Index(*siblings, overID))
}

// abort rolls the transaction back and re-verifies the arena. If the undo log
// could not restore a healthy tree, the arena is rebuilt from the pre-move snapshot.
func (s *Store) abort(tx *txn, prev domain.Tree, activeID, overID domain.ID, cause error) (domain.Tree, error) {
	tx.rollback()

	if err := s.guard(activeID, prev.Count()); err != nil {
		s.logger.Error("Rollback left the tree inconsistent, restoring snapshot",
			"node_id", activeID,
			"err", err,
		)
		s.restore(prev)
	}

	err := fmt.Errorf("%w: %w", domain.ErrMoveRolledBack, cause)
	s.logger.Error("Move rolled back",
		"node_id", activeID,
		"over_id", overID,
		"generation", s.generation,
		"err", cause,
	)
	s.report(domain.OpMove, activeID, domain.OutcomeRolledBack, err)
	return s.Tree(), err
}
