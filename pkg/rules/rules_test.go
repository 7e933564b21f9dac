package rules_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/aretw0/lattice/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_CanNest(t *testing.T) {
	table := rules.Page()

	assert.False(t, table.CanNest(domain.KindSection, domain.KindContainer))
	assert.True(t, table.CanNest(domain.KindContainer, domain.KindSection))
	assert.True(t, table.CanNest(domain.KindSection, domain.KindSection))
	assert.True(t, table.CanNest(domain.KindButton, domain.KindContainer))
}

func TestPage_Check(t *testing.T) {
	table := rules.Page()

	t.Run("Root Accepts Anything", func(t *testing.T) {
		assert.NoError(t, table.Check([]domain.Kind{domain.KindSection}, nil))
	})

	t.Run("Direct Nesting Rejected", func(t *testing.T) {
		err := table.Check(
			[]domain.Kind{domain.KindSection},
			[]domain.Kind{domain.KindContainer},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNestingForbidden)

		var v *rules.Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, domain.KindSection, v.Child)
		assert.Equal(t, domain.KindContainer, v.Ancestor)
	})

	t.Run("Ancestor Chain Checked", func(t *testing.T) {
		err := table.Check(
			[]domain.Kind{domain.KindSection},
			[]domain.Kind{domain.KindSection, domain.KindContainer},
		)
		assert.ErrorIs(t, err, domain.ErrNestingForbidden)
	})

	t.Run("Subtree Kinds Checked", func(t *testing.T) {
		// A container holding a section cannot itself go under a container.
		err := table.Check(
			[]domain.Kind{domain.KindContainer, domain.KindSection},
			[]domain.Kind{domain.KindContainer},
		)
		assert.ErrorIs(t, err, domain.ErrNestingForbidden)
	})

	t.Run("Leaf Parent Rejected", func(t *testing.T) {
		err := table.Check(
			[]domain.Kind{domain.KindParagraph},
			[]domain.Kind{domain.KindButton},
		)
		assert.ErrorIs(t, err, domain.ErrNotContainer)
	})
}

func TestPage_CheckTree(t *testing.T) {
	table := rules.Page()
	tree := func(id domain.ID, kind domain.Kind, children ...domain.Node) domain.Node {
		return domain.Node{ID: id, Kind: kind, Children: children}
	}

	t.Run("Valid Subtree At Root", func(t *testing.T) {
		n := tree("s", domain.KindSection, tree("c", domain.KindContainer, tree("b", domain.KindButton)))
		assert.NoError(t, table.CheckTree(n, nil))
	})

	t.Run("Internal Pair Checked At Root", func(t *testing.T) {
		err := table.CheckTree(tree("c", domain.KindContainer, tree("s", domain.KindSection)), nil)
		var v *rules.Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, domain.KindSection, v.Child)
		assert.Equal(t, domain.KindContainer, v.Ancestor)
	})

	t.Run("Landing Chain Checked", func(t *testing.T) {
		n := tree("s", domain.KindSection, tree("inner", domain.KindSection))
		err := table.CheckTree(n, []domain.Kind{domain.KindSection, domain.KindContainer})
		assert.ErrorIs(t, err, domain.ErrNestingForbidden)
	})

	t.Run("Leaf Holding Children", func(t *testing.T) {
		err := table.CheckTree(tree("b", domain.KindButton, tree("t", domain.KindText)), nil)
		assert.ErrorIs(t, err, domain.ErrNotContainer)
	})

	t.Run("Leaf Landing Parent", func(t *testing.T) {
		err := table.CheckTree(tree("t", domain.KindText), []domain.Kind{domain.KindButton})
		assert.ErrorIs(t, err, domain.ErrNotContainer)
	})
}

func TestForm_IsFlat(t *testing.T) {
	table := rules.Form()
	for _, k := range domain.Kinds() {
		assert.False(t, table.AcceptsChildren(k), "kind %s", k)
		assert.True(t, table.Known(k), "kind %s", k)
	}
	assert.ErrorIs(t,
		table.Check([]domain.Kind{domain.KindText}, []domain.Kind{domain.KindContainer}),
		domain.ErrNotContainer,
	)
	nested := domain.Node{ID: "b", Kind: domain.KindButton, Children: []domain.Node{{ID: "t", Kind: domain.KindText}}}
	assert.ErrorIs(t, table.CheckTree(nested, nil), domain.ErrNotContainer)
}

func TestForVariant(t *testing.T) {
	assert.Equal(t, "form", rules.ForVariant(domain.VariantForm).Name)
	assert.Equal(t, "page", rules.ForVariant(domain.VariantPage).Name)
	assert.Equal(t, "page", rules.ForVariant("").Name)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
name: custom
kinds:
  - kind: container
    accepts_children: true
    nesting_container: true
  - kind: section
    accepts_children: true
  - kind: image
    attributes:
      src: string
      caption: string?
forbidden:
  - child: image
    ancestor: section
`)

	table, err := rules.Parse(data, "yaml")
	require.NoError(t, err)

	assert.Equal(t, "custom", table.Name)
	assert.False(t, table.CanNest(domain.KindImage, domain.KindSection))
	// No flag marks section non-nestable here.
	assert.True(t, table.CanNest(domain.KindSection, domain.KindContainer))

	img := table.Schema(domain.KindImage)
	require.Len(t, img, 2)
	assert.NoError(t, schema.Validate(img, map[string]any{"src": "a.png"}))
	assert.Error(t, schema.Validate(img, map[string]any{"url": "a.png"}))
	builtin, err := json.Marshal(schema.ForKind(domain.KindSection))
	require.NoError(t, err)
	got, err := json.Marshal(table.Schema(domain.KindSection))
	require.NoError(t, err)
	assert.JSONEq(t, string(builtin), string(got))

	_, err = rules.Parse([]byte(`{"kinds":[{"kind":"image","attributes":{"src":"decimal"}}]}`), "json")
	assert.Error(t, err)
}

func TestParse_RejectsUnknownKind(t *testing.T) {
	_, err := rules.Parse([]byte(`{"kinds":[{"kind":"marquee"}]}`), "json")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = rules.Parse([]byte(`{}`), "toml")
	assert.Error(t, err)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "file",
		"kinds": [
			{"kind": "container", "accepts_children": true, "nesting_container": true},
			{"kind": "section", "accepts_children": true, "non_nestable": true}
		]
	}`), 0644))

	table, err := rules.Load(path)
	require.NoError(t, err)
	assert.False(t, table.CanNest(domain.KindSection, domain.KindContainer))
}
