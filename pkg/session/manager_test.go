package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
	mu    sync.Mutex
	saves int
}

func NewSlowStore(docs ...*domain.Document) *SlowStore {
	return &SlowStore{Store: memory.NewStore(docs...)}
}

func (s *SlowStore) Save(ctx context.Context, doc *domain.Document) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, doc)
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Document, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s *SlowStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func TestManager_EditsAreSerialized(t *testing.T) {
	store := NewSlowStore(domain.NewDocument("race-test", domain.VariantPage))
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	concurrentEdits := 10
	for i := 0; i < concurrentEdits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := manager.Edit(ctx, "race-test", func(ed *lattice.Editor) error {
				_, err := ed.Insert(0, domain.Node{ID: domain.ID(fmt.Sprintf("btn-%d", i)), Kind: domain.KindButton}, "")
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc, err := manager.Get(ctx, "race-test")
	require.NoError(t, err)
	assert.Len(t, doc.Roots, concurrentEdits, "every read-modify-write must see the previous one")
}

func TestManager_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("Saves When Dirty", func(t *testing.T) {
		store := NewSlowStore(domain.NewDocument("doc", domain.VariantPage))
		manager := session.NewManager(store)

		doc, err := manager.Edit(ctx, "doc", func(ed *lattice.Editor) error {
			_, err := ed.Insert(0, domain.Node{ID: "box", Kind: domain.KindContainer}, "")
			return err
		})
		require.NoError(t, err)
		assert.Len(t, doc.Roots, 1)
		assert.Equal(t, 1, store.Saves())

		stored, err := store.Load(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, doc.Roots, stored.Roots)
	})

	t.Run("No-op Does Not Save", func(t *testing.T) {
		store := NewSlowStore(domain.NewDocument("doc", domain.VariantPage))
		manager := session.NewManager(store)

		_, err := manager.Edit(ctx, "doc", func(ed *lattice.Editor) error {
			_, err := ed.Remove("ghost")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 0, store.Saves())
	})

	t.Run("Rejection Returns Current Document", func(t *testing.T) {
		seed := domain.NewDocument("doc", domain.VariantPage)
		seed.Roots = []domain.Node{
			{ID: "box", Kind: domain.KindContainer},
			{ID: "hero", Kind: domain.KindSection},
		}
		store := NewSlowStore(seed)
		manager := session.NewManager(store)

		doc, err := manager.Edit(ctx, "doc", func(ed *lattice.Editor) error {
			_, err := ed.Move("hero", "box", true)
			return err
		})
		require.ErrorIs(t, err, domain.ErrNestingForbidden)
		require.NotNil(t, doc)
		assert.Len(t, doc.Roots, 2)
		assert.Equal(t, 0, store.Saves())
	})

	t.Run("Partial Edit Is Kept", func(t *testing.T) {
		store := NewSlowStore(domain.NewDocument("doc", domain.VariantPage))
		manager := session.NewManager(store)
		boom := errors.New("boom")

		_, err := manager.Edit(ctx, "doc", func(ed *lattice.Editor) error {
			if _, err := ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindButton}, ""); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		stored, err := store.Load(ctx, "doc")
		require.NoError(t, err)
		assert.Len(t, stored.Roots, 1)
	})

	t.Run("Unknown Document", func(t *testing.T) {
		manager := session.NewManager(memory.NewStore())
		called := false
		_, err := manager.Edit(ctx, "ghost", func(*lattice.Editor) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, domain.ErrDocumentNotFound)
		assert.False(t, called)
	})

	t.Run("Editor Options", func(t *testing.T) {
		var mutations int
		manager := session.NewManager(memory.NewStore(domain.NewDocument("doc", domain.VariantPage)),
			session.WithEditorOptions(lattice.WithHooks(domain.Hooks{
				OnMutation: func(*domain.MutationEvent) { mutations++ },
			})),
		)
		_, err := manager.Edit(ctx, "doc", func(ed *lattice.Editor) error {
			mutations = 0
			_, err := ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindButton}, "")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, mutations)
	})
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())

	doc, err := manager.Create(ctx, domain.NewDocument("", domain.VariantForm))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.VariantForm, doc.Variant)
	assert.False(t, doc.UpdatedAt.IsZero())

	_, err = manager.Create(ctx, domain.NewDocument(doc.ID, domain.VariantPage))
	require.ErrorIs(t, err, domain.ErrDocumentExists)

	dup := domain.NewDocument("dup", domain.VariantPage)
	dup.Roots = []domain.Node{{ID: "a", Kind: domain.KindButton}, {ID: "a", Kind: domain.KindButton}}
	_, err = manager.Create(ctx, dup)
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID}, ids)

	require.NoError(t, manager.Delete(ctx, doc.ID))
	_, err = manager.Get(ctx, doc.ID)
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(mr.Addr(), "", 0)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), domain.NewDocument("shared", domain.VariantPage)))

	// Two managers stand in for two replicas sharing one Redis.
	locker := redis.NewLocker(store.Client(), "lattice:")
	replicas := []*session.Manager{
		session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second)),
		session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second)),
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := replicas[i%2].Edit(context.Background(), "shared", func(ed *lattice.Editor) error {
				_, err := ed.Insert(0, domain.Node{ID: domain.ID(fmt.Sprintf("n-%d", i)), Kind: domain.KindDivider}, "")
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc, err := store.Load(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, doc.Roots, 6)
}
