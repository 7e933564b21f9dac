package lattice_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *domain.Document {
	doc := domain.NewDocument("landing", domain.VariantPage)
	doc.Title = "Landing"
	doc.Roots = []domain.Node{
		{ID: "hero", Kind: domain.KindSection, Children: []domain.Node{
			{ID: "title", Kind: domain.KindHeading, Attributes: domain.Attributes{"text": "Welcome"}},
			{ID: "cta", Kind: domain.KindButton},
		}},
		{ID: "footer", Kind: domain.KindContainer},
	}
	doc.SelectedID = "cta"
	return doc
}

func TestEditor_OpenRestoresDocument(t *testing.T) {
	ed, err := lattice.Open(sampleDocument())
	require.NoError(t, err)

	assert.Equal(t, "landing", ed.ID())
	assert.Equal(t, 4, ed.Count())
	sel, ok := ed.Selection()
	require.True(t, ok)
	assert.Equal(t, domain.ID("cta"), sel.ID)
	assert.False(t, ed.Dirty())

	doc := ed.Document()
	assert.Equal(t, "Landing", doc.Title)
	assert.Equal(t, domain.ID("cta"), doc.SelectedID)
	assert.Len(t, doc.Roots, 2)
}

func TestEditor_OpenPicksRulesFromVariant(t *testing.T) {
	ed, err := lattice.Open(domain.NewDocument("signup", domain.VariantForm))
	require.NoError(t, err)
	assert.Equal(t, "form", ed.Rules().Name)

	_, err = ed.Insert(0, domain.Node{ID: "name", Kind: domain.KindText}, "")
	require.NoError(t, err)
	_, err = ed.Insert(0, domain.Node{ID: "inner", Kind: domain.KindText}, "name")
	require.ErrorIs(t, err, domain.ErrNotContainer)

	custom, err := lattice.Open(domain.NewDocument("x", domain.VariantForm), lattice.WithRules(rules.Page()))
	require.NoError(t, err)
	assert.Equal(t, "page", custom.Rules().Name)
}

func TestEditor_OpenRejects(t *testing.T) {
	_, err := lattice.Open(nil)
	require.Error(t, err)

	sealed := domain.NewDocument("secret", domain.VariantPage)
	sealed.Sealed = "ciphertext"
	_, err = lattice.Open(sealed)
	require.Error(t, err)

	dup := domain.NewDocument("dup", domain.VariantPage)
	dup.Roots = []domain.Node{{ID: "a", Kind: domain.KindButton}, {ID: "a", Kind: domain.KindButton}}
	_, err = lattice.Open(dup)
	require.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestEditor_DirtyTracking(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ed, err := lattice.Open(sampleDocument(), lattice.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	_, err = ed.Remove("ghost")
	require.NoError(t, err)
	assert.False(t, ed.Dirty(), "no-op must not dirty the document")

	_, err = ed.Update("title", domain.Attributes{"text": "Hi"})
	require.NoError(t, err)
	assert.True(t, ed.Dirty())
	assert.Equal(t, now, ed.Document().UpdatedAt)

	ed.MarkSaved()
	assert.False(t, ed.Dirty())

	ed.SetTitle("Home")
	assert.True(t, ed.Dirty())
	ed.MarkSaved()

	_, err = ed.Select("title")
	require.NoError(t, err)
	assert.True(t, ed.Dirty())
}

func TestEditor_HooksFanOut(t *testing.T) {
	var first, second int
	ed := lattice.New(domain.VariantPage,
		lattice.WithHooks(domain.Hooks{OnMutation: func(*domain.MutationEvent) { first++ }}),
		lattice.WithHooks(domain.Hooks{OnMutation: func(*domain.MutationEvent) { second++ }}),
	)
	// Opening loads the empty tree, which is reported too.
	first, second = 0, 0

	_, err := ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindButton}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestEditor_Subscribe(t *testing.T) {
	ed := lattice.New(domain.VariantPage)

	var gens []uint64
	unsubscribe := ed.Subscribe(func(evt domain.ChangeEvent) {
		gens = append(gens, evt.Tree.Generation)
	})

	_, err := ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindContainer}, "")
	require.NoError(t, err)
	_, err = ed.Insert(0, domain.Node{ID: "b", Kind: domain.KindButton}, "a")
	require.NoError(t, err)
	unsubscribe()
	_, err = ed.Remove("b")
	require.NoError(t, err)

	require.Len(t, gens, 2)
	assert.Less(t, gens[0], gens[1])
}

func TestEditor_ConcurrentEdits(t *testing.T) {
	ed := lattice.New(domain.VariantPage)
	_, err := ed.Insert(0, domain.Node{ID: "box", Kind: domain.KindContainer}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ID(fmt.Sprintf("btn-%d", i))
			_, _ = ed.Insert(i, domain.Node{ID: id, Kind: domain.KindButton}, "box")
			_, _ = ed.Move(id, "box", false)
			_ = ed.Tree()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 21, ed.Count())
	assert.Equal(t, 21, ed.Tree().Count())
}
