package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes every operation on a document and owns the
// load, edit and save cycle. It implements ports.DocumentService.
// Locks are reference counted so unused entries are garbage collected.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	editor  []lattice.Option
	hooks   func(id string) domain.Hooks
}

var _ ports.DocumentService = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions are applied to every editor the Manager opens
// (hooks, rules, depth bound).
func WithEditorOptions(opts ...lattice.Option) Option {
	return func(m *Manager) {
		m.editor = append(m.editor, opts...)
	}
}

// WithDocumentHooks attaches hooks built for each opened document, such as
// observability.Metrics.Hooks.
func WithDocumentHooks(fn func(id string) domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = fn
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Edit loads the document, runs fn against an editor over it and saves the
// result when fn left it dirty. The returned document is the current state
// even when fn fails, so callers can show what the user is looking at.
func (m *Manager) Edit(ctx context.Context, id string, fn func(*lattice.Editor) error) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		stored, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}

		opts := append([]lattice.Option{lattice.WithLogger(m.logger)}, m.editor...)
		if m.hooks != nil {
			opts = append(opts, lattice.WithHooks(m.hooks(id)))
		}
		ed, err := lattice.Open(stored, opts...)
		if err != nil {
			return err
		}

		fnErr := fn(ed)
		doc = ed.Document()
		if !ed.Dirty() {
			return fnErr
		}
		if err := m.store.Save(ctx, doc); err != nil {
			return fmt.Errorf("save %s: %w", id, err)
		}
		ed.MarkSaved()
		m.logger.Debug("Document saved", "document", id, "generation", ed.Generation())
		return fnErr
	})
	return doc, err
}

// Create stores a new, empty-or-seeded document. An empty id is generated.
func (m *Manager) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if doc == nil {
		doc = domain.NewDocument("", domain.VariantPage)
	}
	doc = doc.Clone()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	var created *domain.Document
	err := m.WithLock(ctx, doc.ID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, doc.ID)
		switch {
		case err == nil:
			return fmt.Errorf("create %s: %w", doc.ID, domain.ErrDocumentExists)
		case !errors.Is(err, domain.ErrDocumentNotFound):
			return fmt.Errorf("create %s: %w", doc.ID, err)
		}

		// Round trip through an editor so the stored tree is validated.
		ed, err := lattice.Open(doc, m.editor...)
		if err != nil {
			return err
		}
		created = ed.Document()
		if created.UpdatedAt.IsZero() {
			created.UpdatedAt = time.Now().UTC()
		}
		return m.store.Save(ctx, created)
	})
	return created, err
}

// Get retrieves a document.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		return err
	})
	return doc, err
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes fn while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
