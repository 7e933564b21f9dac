package domain_test

import (
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes_MergeIsShallow(t *testing.T) {
	base := domain.Attributes{
		"label": "Email",
		"style": map[string]any{"color": "red", "margin": "4px"},
	}

	merged := base.Merge(domain.Attributes{
		"style":    map[string]any{"color": "blue"},
		"required": true,
	})

	assert.Equal(t, "Email", merged["label"])
	assert.Equal(t, true, merged["required"])
	// Nested maps are replaced, not merged.
	assert.Equal(t, map[string]any{"color": "blue"}, merged["style"])

	// Source bag is untouched.
	assert.Equal(t, map[string]any{"color": "red", "margin": "4px"}, base["style"])
	assert.NotContains(t, base, "required")
}

func TestAttributes_MergeNilDeletes(t *testing.T) {
	base := domain.Attributes{"label": "x", "placeholder": "y"}
	merged := base.Merge(domain.Attributes{"placeholder": nil})

	assert.Equal(t, domain.Attributes{"label": "x"}, merged)
	assert.Len(t, base, 2)
}

func TestNode_CloneIsDeep(t *testing.T) {
	n := domain.Node{
		ID:   "a",
		Kind: domain.KindContainer,
		Children: []domain.Node{
			{ID: "b", Kind: domain.KindSelect, Attributes: domain.Attributes{
				"options": []any{"x", "y"},
			}},
		},
	}

	c := n.Clone()
	c.Children[0].Attributes["options"].([]any)[0] = "changed"
	c.Children = append(c.Children, domain.Node{ID: "z"})

	assert.Equal(t, "x", n.Children[0].Attributes["options"].([]any)[0])
	assert.Len(t, n.Children, 1)
}

func TestTree_FindAndCount(t *testing.T) {
	tree := domain.Tree{Roots: []domain.Node{
		{ID: "a", Kind: domain.KindSection, Children: []domain.Node{
			{ID: "b", Kind: domain.KindContainer, Children: []domain.Node{
				{ID: "c", Kind: domain.KindButton},
			}},
		}},
		{ID: "d", Kind: domain.KindDivider},
	}}

	assert.Equal(t, 4, tree.Count())

	n, ok := tree.Find("c")
	require.True(t, ok)
	assert.Equal(t, domain.KindButton, n.Kind)

	_, ok = tree.Find("missing")
	assert.False(t, ok)

	pos := tree.Positions()
	assert.Equal(t, domain.Position{Parent: "b", Index: 0, Depth: 2}, pos["c"])
	assert.Equal(t, domain.Position{Parent: "", Index: 1, Depth: 0}, pos["d"])
}

func TestNode_Props(t *testing.T) {
	n := domain.Node{
		ID:   "f",
		Kind: domain.KindSelect,
		Attributes: domain.Attributes{
			"label":    "Country",
			"required": "true",
			"options":  []any{"PT", "BR"},
			"style":    map[string]any{"width": "100%"},
			"extra":    42,
		},
	}

	props, err := n.Props()
	require.NoError(t, err)

	choice, ok := props.(domain.ChoiceProps)
	require.True(t, ok, "expected ChoiceProps, got %T", props)
	assert.Equal(t, "Country", choice.Label)
	assert.True(t, choice.Required)
	assert.Equal(t, []string{"PT", "BR"}, choice.Options)
	assert.Equal(t, "100%", choice.Base["width"])
}

func TestNode_PropsUnknownKind(t *testing.T) {
	_, err := domain.Node{ID: "x", Kind: "marquee"}.Props()
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestKind_Valid(t *testing.T) {
	for _, k := range domain.Kinds() {
		assert.True(t, k.Valid(), "kind %s", k)
	}
	assert.False(t, domain.Kind("marquee").Valid())
	assert.True(t, domain.KindEmail.IsField())
	assert.False(t, domain.KindSection.IsField())
}

func TestNode_Caption(t *testing.T) {
	tests := []struct {
		node domain.Node
		want string
	}{
		{domain.Node{Kind: domain.KindButton, Attributes: domain.Attributes{"label": "Go", "text": "ignored"}}, "Go"},
		{domain.Node{Kind: domain.KindHeading, Attributes: domain.Attributes{"text": "Welcome", "level": "2"}}, "Welcome"},
		{domain.Node{Kind: domain.KindEmail, Attributes: domain.Attributes{"name": "email"}}, "email"},
		{domain.Node{Kind: domain.KindSelect, Attributes: domain.Attributes{"label": "Plan", "options": []any{"a"}}}, "Plan"},
		{domain.Node{Kind: domain.KindSection, Attributes: domain.Attributes{"name": "hero"}}, "hero"},
		{domain.Node{Kind: domain.KindDivider}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.node.Caption(), "%s", tt.node.Kind)
	}
}
