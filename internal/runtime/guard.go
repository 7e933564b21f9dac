package runtime

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// guard is the post-commit check of a move: a full scan from the roots must
// reach activeID exactly once, reach every arena entry exactly once, and find
// the same number of nodes as before the move.
func (s *Store) guard(activeID domain.ID, expected int) error {
	seen, err := s.forest.scan()
	if err != nil {
		return err
	}
	if n := seen[activeID]; n != 1 {
		return fmt.Errorf("%w: %s reachable %d times", domain.ErrIntegrity, activeID, n)
	}
	if len(seen) != len(s.forest.nodes) {
		return fmt.Errorf("%w: %d of %d nodes reachable", domain.ErrIntegrity, len(seen), len(s.forest.nodes))
	}
	if len(seen) != expected {
		return fmt.Errorf("%w: node count changed from %d to %d", domain.ErrIntegrity, expected, len(seen))
	}
	return nil
}

// restore rebuilds the arena from a snapshot without bumping the generation.
func (s *Store) restore(t domain.Tree) {
	f := newForest()
	for i, r := range t.Roots {
		_, _ = f.add(r, "", i)
	}
	s.forest = f
	s.cached = nil
}
