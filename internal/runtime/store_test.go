package runtime_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() runtime.Option {
	n := 0
	return runtime.WithIDGenerator(func() domain.ID {
		n++
		return domain.ID(fmt.Sprintf("n%d", n))
	})
}

func node(id domain.ID, kind domain.Kind, children ...domain.Node) domain.Node {
	return domain.Node{ID: id, Kind: kind, Children: children}
}

func ids(nodes []domain.Node) []domain.ID {
	out := make([]domain.ID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func load(t *testing.T, s *runtime.Store, roots ...domain.Node) domain.Tree {
	t.Helper()
	tree, err := s.Load(roots)
	require.NoError(t, err)
	return tree
}

func TestStore_Insert(t *testing.T) {
	s := runtime.New(sequentialIDs())

	tree, err := s.Insert(0, node("a", domain.KindContainer), "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"a"}, ids(tree.Roots))
	assert.Equal(t, uint64(1), tree.Generation)

	tree, err = s.Insert(0, node("b", domain.KindButton), "a")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"b"}, ids(tree.Roots[0].Children))

	// Empty ids are assigned by the generator.
	tree, err = s.Insert(1, domain.Node{Kind: domain.KindHeading}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"a", "n1"}, ids(tree.Roots))
	assert.Equal(t, 3, s.Count())
}

func TestStore_InsertClampsIndex(t *testing.T) {
	s := runtime.New()
	load(t, s, node("x", domain.KindButton), node("y", domain.KindButton))

	_, err := s.Insert(-5, node("first", domain.KindDivider), "")
	require.NoError(t, err)
	tree, err := s.Insert(99, node("last", domain.KindDivider), "")
	require.NoError(t, err)

	assert.Equal(t, []domain.ID{"first", "x", "y", "last"}, ids(tree.Roots))
}

func TestStore_InsertRejections(t *testing.T) {
	tests := []struct {
		name   string
		node   domain.Node
		parent domain.ID
		want   error
	}{
		{"Duplicate ID", node("btn", domain.KindButton), "", domain.ErrDuplicateID},
		{"Duplicate Inside Subtree", node("new", domain.KindContainer, node("btn", domain.KindButton)), "", domain.ErrDuplicateID},
		{"Unknown Kind", node("z", domain.Kind("carousel")), "", domain.ErrInvalidKind},
		{"Section Into Container", node("s2", domain.KindSection), "box", domain.ErrNestingForbidden},
		{"Section Below Nested Container", node("s2", domain.KindSection), "inner", domain.ErrNestingForbidden},
		{"Into Leaf", node("z", domain.KindButton), "btn", domain.ErrNotContainer},
		{"Unknown Parent", node("z", domain.KindButton), "ghost", domain.ErrNodeNotFound},
		{"Subtree Holds Section Under Container", node("box2", domain.KindContainer, node("s2", domain.KindSection)), "", domain.ErrNestingForbidden},
		{"Leaf Deep In Subtree Holds Children", node("s3", domain.KindSection,
			node("c3", domain.KindContainer, node("p", domain.KindParagraph, node("s4", domain.KindSection)))), "", domain.ErrNotContainer},
		{"Section Deep In Subtree", node("s3", domain.KindSection,
			node("c3", domain.KindContainer, node("c4", domain.KindContainer, node("s4", domain.KindSection)))), "", domain.ErrNestingForbidden},
		{"Children Under Leaf", node("b2", domain.KindButton, node("t", domain.KindText)), "", domain.ErrNotContainer},
		{"Children Under Leaf Inside Container", node("b2", domain.KindButton, node("t", domain.KindText)), "box", domain.ErrNotContainer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := runtime.New()
			before := load(t, s,
				node("box", domain.KindContainer, node("btn", domain.KindButton)),
				node("sec", domain.KindSection, node("inner", domain.KindContainer)),
			)

			tree, err := s.Insert(0, tt.node, tt.parent)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, tree)
			assert.Equal(t, before.Generation, s.Generation())
		})
	}
}

func TestStore_InsertFlatForm(t *testing.T) {
	s := runtime.New(runtime.WithRules(rules.Form()))
	before := load(t, s, node("name", domain.KindText))

	tree, err := s.Insert(0, node("btn", domain.KindButton, node("txt", domain.KindText)), "")
	require.ErrorIs(t, err, domain.ErrNotContainer)
	assert.Equal(t, before, tree)
	assert.Equal(t, 1, tree.Count())

	tree, err = s.Insert(1, node("btn", domain.KindButton), "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"name", "btn"}, ids(tree.Roots))
}

func TestStore_PermissiveInsertSkipsSubtreeRules(t *testing.T) {
	s := runtime.New(runtime.WithPermissiveInsert())

	tree, err := s.Insert(0, node("box", domain.KindContainer, node("sec", domain.KindSection)), "")
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Count())
}

func TestStore_PermissiveInsert(t *testing.T) {
	s := runtime.New(runtime.WithPermissiveInsert())
	load(t, s, node("box", domain.KindContainer))

	tree, err := s.Insert(0, node("sec", domain.KindSection), "box")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"sec"}, ids(tree.Roots[0].Children))
}

func TestStore_MaxDepth(t *testing.T) {
	s := runtime.New(runtime.WithMaxDepth(2))
	load(t, s, node("a", domain.KindContainer, node("b", domain.KindContainer)))

	_, err := s.Insert(0, node("c", domain.KindButton), "b")
	require.ErrorIs(t, err, domain.ErrTooDeep)

	_, err = s.Insert(0, node("c", domain.KindButton), "a")
	require.NoError(t, err)
}

func TestStore_RemoveCascades(t *testing.T) {
	s := runtime.New()
	load(t, s,
		node("a", domain.KindContainer,
			node("b", domain.KindContainer, node("c", domain.KindButton)),
			node("d", domain.KindHeading),
		),
		node("e", domain.KindDivider),
	)
	_, err := s.Select("c")
	require.NoError(t, err)

	tree, err := s.Remove("a")
	require.NoError(t, err)

	assert.Equal(t, 1, tree.Count())
	assert.Equal(t, []domain.ID{"e"}, ids(tree.Roots))
	assert.Equal(t, domain.ID(""), s.SelectedID())
	_, ok := s.Find("c")
	assert.False(t, ok)
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	s := runtime.New()
	before := load(t, s, node("a", domain.KindButton))

	tree, err := s.Remove("ghost")
	require.NoError(t, err)
	assert.Equal(t, before, tree)
}

func TestStore_IDsAreOpaque(t *testing.T) {
	// Ids are arbitrary strings, control characters included.
	const odd domain.ID = "\x00detached"

	t.Run("Move Child Out", func(t *testing.T) {
		s := runtime.New()
		load(t, s, node(odd, domain.KindContainer, node("b", domain.KindButton)))

		tree, err := s.Move("b", odd, false)
		require.NoError(t, err)
		assert.Equal(t, []domain.ID{"b", odd}, ids(tree.Roots))
		assert.Empty(t, tree.Roots[1].Children)

		tree, err = s.Move("b", odd, true)
		require.NoError(t, err)
		assert.Equal(t, []domain.ID{"b"}, ids(tree.Roots[0].Children))
	})

	t.Run("Remove Child", func(t *testing.T) {
		s := runtime.New()
		load(t, s, node(odd, domain.KindContainer, node("b", domain.KindButton)))

		tree, err := s.Remove("b")
		require.NoError(t, err)
		assert.Equal(t, 1, tree.Count())
		assert.Empty(t, tree.Roots[0].Children)
	})

	t.Run("Insert Under It", func(t *testing.T) {
		s := runtime.New()
		load(t, s, node(odd, domain.KindContainer))

		tree, err := s.Insert(0, node("b", domain.KindButton), odd)
		require.NoError(t, err)
		assert.Equal(t, []domain.ID{"b"}, ids(tree.Roots[0].Children))

		path := s.Path("b")
		assert.Equal(t, []domain.ID{odd, "b"}, path)
	})
}

func TestStore_Update(t *testing.T) {
	s := runtime.New()
	load(t, s, node("box", domain.KindContainer, node("btn", domain.KindButton)))

	tree, err := s.Update("btn", domain.Attributes{"label": "Buy", "variant": "primary"})
	require.NoError(t, err)
	btn, ok := tree.Find("btn")
	require.True(t, ok)
	assert.Equal(t, domain.KindButton, btn.Kind)
	assert.Equal(t, "Buy", btn.Attributes.String("label"))

	gen := s.Generation()
	_, err = s.Update("btn", domain.Attributes{"label": "Buy"})
	require.NoError(t, err)
	assert.Equal(t, gen, s.Generation(), "unchanged patch must not commit")

	tree, err = s.Update("btn", domain.Attributes{"variant": nil})
	require.NoError(t, err)
	btn, _ = tree.Find("btn")
	assert.Equal(t, domain.Attributes{"label": "Buy"}, btn.Attributes)

	// Children of a container survive an update of the container.
	tree, err = s.Update("box", domain.Attributes{"gap": 8})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"btn"}, ids(tree.Roots[0].Children))

	_, err = s.Update("ghost", domain.Attributes{"x": 1})
	require.NoError(t, err)
}

func TestStore_Selection(t *testing.T) {
	s := runtime.New()
	load(t, s, node("a", domain.KindHeading))

	_, err := s.Select("ghost")
	require.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = s.Select("a")
	require.NoError(t, err)

	_, err = s.Update("a", domain.Attributes{"text": "Hello"})
	require.NoError(t, err)

	sel, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, "Hello", sel.Attributes.String("text"))

	s.ClearSelection()
	_, ok = s.Selection()
	assert.False(t, ok)
}

func TestStore_Load(t *testing.T) {
	t.Run("Fills Empty IDs", func(t *testing.T) {
		s := runtime.New(sequentialIDs())
		tree := load(t, s, domain.Node{Kind: domain.KindContainer, Children: []domain.Node{{Kind: domain.KindButton}}})
		assert.Equal(t, 2, tree.Count())
		_, ok := tree.Find("n1")
		assert.True(t, ok)
	})

	t.Run("Rejects Duplicates", func(t *testing.T) {
		s := runtime.New()
		_, err := s.Load([]domain.Node{node("a", domain.KindButton), node("a", domain.KindButton)})
		require.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Equal(t, 0, s.Count())
	})

	t.Run("Rejects Unknown Kind", func(t *testing.T) {
		s := runtime.New()
		_, err := s.Load([]domain.Node{node("a", domain.Kind("marquee"))})
		require.ErrorIs(t, err, domain.ErrInvalidKind)
	})

	t.Run("Keeps Legacy Nesting", func(t *testing.T) {
		s := runtime.New()
		tree := load(t, s, node("box", domain.KindContainer, node("sec", domain.KindSection)))
		assert.Equal(t, 2, tree.Count())
	})
}

func TestStore_HooksAndObservers(t *testing.T) {
	var outcomes []domain.Outcome
	var changes []*domain.ChangeEvent
	s := runtime.New(runtime.WithHooks(domain.Hooks{
		OnMutation: func(e *domain.MutationEvent) { outcomes = append(outcomes, e.Outcome) },
		OnChange:   func(e *domain.ChangeEvent) { changes = append(changes, e) },
	}))

	var observed []domain.ChangeEvent
	unsubscribe := s.Subscribe(func(e domain.ChangeEvent) { observed = append(observed, e) })

	_, err := s.Insert(0, node("a", domain.KindButton), "")
	require.NoError(t, err)
	_, err = s.Insert(0, node("a", domain.KindButton), "")
	require.Error(t, err)
	_, err = s.Remove("ghost")
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.OutcomeCommitted, domain.OutcomeRejected, domain.OutcomeNoop}, outcomes)
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].Diff)
	assert.Equal(t, []domain.ID{"a"}, changes[0].Diff.Added)
	require.Len(t, observed, 1)

	unsubscribe()
	_, err = s.Remove("a")
	require.NoError(t, err)
	assert.Len(t, observed, 1)
	assert.Len(t, changes, 2)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := runtime.New()
	tree := load(t, s, node("a", domain.KindContainer, node("b", domain.KindButton)))

	tree.Roots[0].Children = nil
	tree.Roots[0].ID = "mutated"

	again := s.Tree()
	assert.Equal(t, domain.ID("a"), again.Roots[0].ID)
	assert.Len(t, again.Roots[0].Children, 1)
}

func TestStore_Path(t *testing.T) {
	s := runtime.New()
	load(t, s, node("a", domain.KindSection, node("b", domain.KindContainer, node("c", domain.KindButton))))

	assert.Equal(t, []domain.ID{"a", "b", "c"}, s.Path("c"))
	parent, ok := s.Parent("c")
	require.True(t, ok)
	assert.Equal(t, domain.ID("b"), parent)
	assert.Nil(t, s.Path("ghost"))
}
