package lattice

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/google/uuid"
)

// Editor is the high-level entry point for the Lattice library.
// It owns one document, wraps the internal runtime store and serializes access
// to it, so readers and observers always see either the pre- or post-commit tree.
type Editor struct {
	mu    sync.Mutex
	store *runtime.Store

	id      string
	title   string
	variant domain.Variant
	updated time.Time

	// baseline for Dirty
	savedGeneration uint64
	savedTitle      string
	savedSelection  domain.ID

	rules       *rules.Table
	hooks       []domain.Hooks
	logger      *slog.Logger
	clock       func() time.Time
	runtimeOpts []runtime.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithRules overrides the structural rule table. By default the table is
// chosen from the document variant.
func WithRules(t *rules.Table) Option {
	return func(e *Editor) {
		e.rules = t
	}
}

// WithHooks registers observability hooks. It may be passed several times;
// every registered set is called.
func WithHooks(h domain.Hooks) Option {
	return func(e *Editor) {
		e.hooks = append(e.hooks, h)
	}
}

// WithIDGenerator overrides how ids are assigned to inserted nodes that have none.
func WithIDGenerator(fn func() domain.ID) Option {
	return func(e *Editor) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(fn))
	}
}

// WithPermissiveInsert skips the structural check on Insert. Move is always checked.
func WithPermissiveInsert() Option {
	return func(e *Editor) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPermissiveInsert())
	}
}

// WithMaxDepth bounds the nesting depth edits may produce (default 64).
func WithMaxDepth(depth int) Option {
	return func(e *Editor) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxDepth(depth))
	}
}

// WithClock overrides the time source used for event timestamps and UpdatedAt.
func WithClock(fn func() time.Time) Option {
	return func(e *Editor) {
		if fn != nil {
			e.clock = fn
			e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(fn))
		}
	}
}

// New creates an editor over an empty document of the given variant.
func New(variant domain.Variant, opts ...Option) *Editor {
	e, err := Open(domain.NewDocument(uuid.NewString(), variant), opts...)
	if err != nil {
		// An empty document always loads.
		panic(err)
	}
	return e
}

// Open creates an editor over an existing document. The document is copied;
// later changes to doc are not seen by the editor.
// Nesting violations in legacy documents are logged, not rejected, so they stay editable.
func Open(doc *domain.Document, opts ...Option) (*Editor, error) {
	if doc == nil {
		return nil, fmt.Errorf("open: nil document")
	}
	if doc.Sealed != "" {
		return nil, fmt.Errorf("open %s: document is sealed, read it through the encryption middleware", doc.ID)
	}

	e := &Editor{
		id:      doc.ID,
		title:   doc.Title,
		variant: doc.Variant,
		updated: doc.UpdatedAt,
		clock:   time.Now,
	}
	if e.variant == "" {
		e.variant = domain.VariantPage
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("document", e.id)
	if e.rules == nil {
		e.rules = rules.ForVariant(e.variant)
	}

	runtimeOpts := []runtime.Option{
		runtime.WithRules(e.rules),
		runtime.WithLogger(e.logger),
		runtime.WithHooks(fanOut(e.hooks)),
	}
	runtimeOpts = append(runtimeOpts, e.runtimeOpts...)
	e.store = runtime.New(runtimeOpts...)

	if _, err := e.store.Load(doc.Roots); err != nil {
		return nil, fmt.Errorf("open %s: %w", doc.ID, err)
	}
	if doc.SelectedID != "" {
		if _, err := e.store.Select(doc.SelectedID); err != nil {
			e.logger.Warn("Saved selection no longer exists", "node_id", doc.SelectedID)
		}
	}
	e.markSaved()
	return e, nil
}

func fanOut(all []domain.Hooks) domain.Hooks {
	if len(all) == 1 {
		return all[0]
	}
	var out domain.Hooks
	for _, h := range all {
		if h.OnMutation != nil {
			prev, next := out.OnMutation, h.OnMutation
			out.OnMutation = func(evt *domain.MutationEvent) {
				if prev != nil {
					prev(evt)
				}
				next(evt)
			}
		}
		if h.OnChange != nil {
			prev, next := out.OnChange, h.OnChange
			out.OnChange = func(evt *domain.ChangeEvent) {
				if prev != nil {
					prev(evt)
				}
				next(evt)
			}
		}
	}
	return out
}

// apply runs one store mutation under the lock and stamps UpdatedAt on commit.
func (e *Editor) apply(fn func() (domain.Tree, error)) (domain.Tree, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	gen := e.store.Generation()
	tree, err := fn()
	if e.store.Generation() != gen {
		e.updated = e.clock()
	}
	return tree, err
}

// Insert places node at index among the children of parentID ("" for the root
// sequence). See runtime.Store.Insert.
func (e *Editor) Insert(index int, node domain.Node, parentID domain.ID) (domain.Tree, error) {
	return e.apply(func() (domain.Tree, error) { return e.store.Insert(index, node, parentID) })
}

// Remove deletes id and its subtree. A missing id is a no-op.
func (e *Editor) Remove(id domain.ID) (domain.Tree, error) {
	return e.apply(func() (domain.Tree, error) { return e.store.Remove(id) })
}

// Update shallow-merges patch into the node's attributes. A nil value deletes the key.
func (e *Editor) Update(id domain.ID, patch domain.Attributes) (domain.Tree, error) {
	return e.apply(func() (domain.Tree, error) { return e.store.Update(id, patch) })
}

// Move relocates activeID relative to overID: inside overID when inside is
// set, otherwise into overID's slot among its siblings. A move that fails its
// integrity check is rolled back and reported with domain.ErrMoveRolledBack.
func (e *Editor) Move(activeID, overID domain.ID, inside bool) (domain.Tree, error) {
	return e.apply(func() (domain.Tree, error) { return e.store.Move(activeID, overID, inside) })
}

// Load replaces the whole tree.
func (e *Editor) Load(roots []domain.Node) (domain.Tree, error) {
	return e.apply(func() (domain.Tree, error) { return e.store.Load(roots) })
}

// Select marks id as the node being edited.
func (e *Editor) Select(id domain.ID) (domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Select(id)
}

// ClearSelection drops the current selection.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ClearSelection()
}

// Selection returns a copy of the selected node.
func (e *Editor) Selection() (domain.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Selection()
}

// Tree returns the canonical tree snapshot.
func (e *Editor) Tree() domain.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Tree()
}

// Find returns a copy of the node's subtree.
func (e *Editor) Find(id domain.ID) (domain.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Find(id)
}

// Parent returns the parent id of a node ("" for roots).
func (e *Editor) Parent(id domain.ID) (domain.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Parent(id)
}

// Path returns the ids from the root down to id, inclusive.
func (e *Editor) Path(id domain.ID) []domain.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Path(id)
}

// Count returns the number of nodes.
func (e *Editor) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Count()
}

// Generation returns the number of commits applied since the editor was opened.
func (e *Editor) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Generation()
}

// Subscribe registers an observer called after each commit, and returns a
// function that removes it. Observers run while the editor is locked and must
// not call back into it.
func (e *Editor) Subscribe(fn func(domain.ChangeEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	unsubscribe := e.store.Subscribe(fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		unsubscribe()
	}
}

// ID returns the document id.
func (e *Editor) ID() string {
	return e.id
}

// Variant returns the document variant.
func (e *Editor) Variant() domain.Variant {
	return e.variant
}

// Rules returns the structural rule table in use.
func (e *Editor) Rules() *rules.Table {
	return e.rules
}

// SetTitle renames the document.
func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if title == e.title {
		return
	}
	e.title = title
	e.updated = e.clock()
}

// Document returns the persisted form of the current state.
func (e *Editor) Document() *domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &domain.Document{
		ID:         e.id,
		Title:      e.title,
		Variant:    e.variant,
		Roots:      e.store.Tree().Roots,
		SelectedID: e.store.SelectedID(),
		UpdatedAt:  e.updated,
	}
}

// Dirty reports whether the document changed since it was opened or last
// marked saved: a committed edit, a new title or a different selection.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Generation() != e.savedGeneration ||
		e.title != e.savedTitle ||
		e.store.SelectedID() != e.savedSelection
}

// MarkSaved resets the Dirty baseline to the current state.
func (e *Editor) MarkSaved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markSaved()
}

func (e *Editor) markSaved() {
	e.savedGeneration = e.store.Generation()
	e.savedTitle = e.title
	e.savedSelection = e.store.SelectedID()
}
