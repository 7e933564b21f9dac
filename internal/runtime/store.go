package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/google/uuid"
)

// DefaultMaxDepth bounds how deep a mutation may nest a node.
const DefaultMaxDepth = 64

// Store owns the canonical tree of one document and applies structural edits.
// Every mutation either commits fully or leaves the tree untouched.
//
// A Store is single-writer: it is not safe for concurrent use. Callers that
// share one across goroutines must serialize access (see lattice.Editor).
type Store struct {
	forest     *forest
	generation uint64
	cached     *domain.Tree
	selection  selection

	rules        *rules.Table
	logger       *slog.Logger
	hooks        domain.Hooks
	newID        func() domain.ID
	clock        func() time.Time
	permissive   bool
	maxDepth     int
	observers    map[int]func(domain.ChangeEvent)
	nextObserver int
}

// Option configures a Store.
type Option func(*Store)

// WithRules sets the structural rule table (default: rules.Page()).
func WithRules(t *rules.Table) Option {
	return func(s *Store) {
		if t != nil {
			s.rules = t
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(s *Store) {
		s.hooks = h
	}
}

// WithIDGenerator overrides how ids are assigned to inserted nodes that have none.
func WithIDGenerator(fn func() domain.ID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.clock = fn
		}
	}
}

// WithPermissiveInsert skips the structural check on Insert, trusting the
// caller to have chosen a legal target. Move is always checked.
func WithPermissiveInsert() Option {
	return func(s *Store) {
		s.permissive = true
	}
}

// WithMaxDepth bounds the nesting depth mutations may produce.
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		forest:    newForest(),
		rules:     rules.Page(),
		logger:    logging.NewNop(),
		newID:     func() domain.ID { return domain.ID(uuid.NewString()) },
		clock:     time.Now,
		maxDepth:  DefaultMaxDepth,
		observers: make(map[int]func(domain.ChangeEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the structural rule table in use.
func (s *Store) Rules() *rules.Table {
	return s.rules
}

// Load replaces the whole tree. Ids must be unique and kinds known; nesting
// rules are not enforced on load (legacy documents stay editable) but each
// violation is logged.
func (s *Store) Load(roots []domain.Node) (domain.Tree, error) {
	next := newForest()
	for i, r := range roots {
		r = s.withIDs(r)
		if dups := next.collisions(r); len(dups) > 0 {
			return s.Tree(), fmt.Errorf("%w: %v", domain.ErrDuplicateID, dups)
		}
		if err := validKinds(r); err != nil {
			return s.Tree(), err
		}
		if _, err := next.add(r, "", i); err != nil {
			return s.Tree(), err
		}
	}

	for id := range next.nodes {
		e := next.nodes[id]
		if err := s.rules.Check([]domain.Kind{e.kind}, s.landingKinds(next, e.parent)); err != nil {
			s.logger.Warn("Loaded tree violates nesting rules", "node_id", id, "err", err)
		}
	}

	prev := s.Tree()
	s.forest = next
	s.selection = selection{}
	return s.commit(domain.OpLoad, "", prev), nil
}

// Tree returns the canonical tree snapshot.
func (s *Store) Tree() domain.Tree {
	if s.cached == nil || s.cached.Generation != s.generation {
		t := domain.Tree{Generation: s.generation, Roots: s.forest.snapshot()}
		s.cached = &t
	}
	return s.cached.Clone()
}

// Generation returns the number of commits applied so far.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Count returns the number of nodes in the tree.
func (s *Store) Count() int {
	return len(s.forest.nodes)
}

// Find returns a copy of the node's subtree.
func (s *Store) Find(id domain.ID) (domain.Node, bool) {
	if _, ok := s.forest.get(id); !ok {
		return domain.Node{}, false
	}
	return s.forest.build(id), true
}

// Parent returns the parent id of a node ("" for roots).
func (s *Store) Parent(id domain.ID) (domain.ID, bool) {
	e, ok := s.forest.get(id)
	if !ok {
		return "", false
	}
	return e.parent, true
}

// Path returns the ids from the root down to id, inclusive.
func (s *Store) Path(id domain.ID) []domain.ID {
	if _, ok := s.forest.get(id); !ok {
		return nil
	}
	anc := s.forest.ancestors(id)
	out := make([]domain.ID, 0, len(anc)+1)
	for i := len(anc) - 1; i >= 0; i-- {
		out = append(out, anc[i])
	}
	return append(out, id)
}

// Subscribe registers an observer called after each commit.
// The returned function removes it.
func (s *Store) Subscribe(fn func(domain.ChangeEvent)) func() {
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	return func() {
		delete(s.observers, id)
	}
}

// withIDs returns a copy of n where every empty id is filled by the generator.
func (s *Store) withIDs(n domain.Node) domain.Node {
	out := n.Clone()
	stack := []*domain.Node{&out}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ID == "" {
			cur.ID = s.newID()
		}
		for i := range cur.Children {
			stack = append(stack, &cur.Children[i])
		}
	}
	return out
}

func validKinds(n domain.Node) error {
	var bad *domain.Node
	n.Walk(func(c domain.Node, _ int) bool {
		if bad == nil && !c.Kind.Valid() {
			bad = &c
		}
		return bad == nil
	})
	if bad != nil {
		return fmt.Errorf("%w: %q on node %s", domain.ErrInvalidKind, bad.Kind, bad.ID)
	}
	return nil
}

// landingKinds returns the kinds of parent and its ancestors, nearest first.
func (s *Store) landingKinds(f *forest, parent domain.ID) []domain.Kind {
	if parent == "" {
		return nil
	}
	e, ok := f.get(parent)
	if !ok {
		return nil
	}
	out := []domain.Kind{e.kind}
	for _, a := range f.ancestors(parent) {
		out = append(out, f.nodes[a].kind)
	}
	return out
}

// commit stamps a new generation, refreshes the selection and notifies observers.
func (s *Store) commit(op domain.Op, nodeID domain.ID, prev domain.Tree) domain.Tree {
	s.generation++
	s.refreshSelection()
	next := s.Tree()

	s.logger.Debug("Committed mutation",
		"op", op,
		"node_id", nodeID,
		"generation", s.generation,
		"nodes", s.Count(),
	)

	s.report(op, nodeID, domain.OutcomeCommitted, nil)

	if len(s.observers) == 0 && s.hooks.OnChange == nil {
		return next
	}
	evt := domain.ChangeEvent{
		Timestamp: s.clock(),
		Op:        op,
		NodeID:    nodeID,
		Tree:      next,
		Diff:      domain.Diff(prev, next),
	}
	if s.hooks.OnChange != nil {
		s.hooks.OnChange(&evt)
	}
	for _, fn := range s.observers {
		fn(evt)
	}
	return next
}

// report emits a MutationEvent for every attempt, committed or not.
func (s *Store) report(op domain.Op, nodeID domain.ID, outcome domain.Outcome, err error) {
	if s.hooks.OnMutation == nil {
		return
	}
	s.hooks.OnMutation(&domain.MutationEvent{
		Timestamp: s.clock(),
		Op:        op,
		NodeID:    nodeID,
		Outcome:   outcome,
		Nodes:     s.Count(),
		Err:       err,
	})
}
