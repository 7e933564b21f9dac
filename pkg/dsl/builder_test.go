package dsl

import (
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Tree(t *testing.T) {
	roots, err := New().
		Section("hero",
			Heading("title", "Welcome").Level(1),
			Container("cols",
				Button("cta").Label("Start").Style("color", "white").Responsive("sm", "width", "100%"),
			),
		).
		Add(Divider("rule")).
		Build()
	require.NoError(t, err)

	require.Len(t, roots, 2)
	hero := roots[0]
	assert.Equal(t, domain.KindSection, hero.Kind)
	require.Len(t, hero.Children, 2)
	assert.Equal(t, domain.Attributes{"text": "Welcome", "level": 1}, hero.Children[0].Attributes)

	cta := hero.Children[1].Children[0]
	assert.Equal(t, domain.ID("cta"), cta.ID)
	assert.Equal(t, "Start", cta.Attributes.String("label"))
	assert.Equal(t, map[string]any{"color": "white"}, cta.Attributes["style"])
	assert.Equal(t, map[string]any{"sm": map[string]any{"width": "100%"}}, cta.Attributes["responsive"])

	assert.Equal(t, 5, domain.Tree{Roots: roots}.Count())
}

func TestBuilder_Form(t *testing.T) {
	doc, err := New().Add(
		Field(domain.KindEmail, "email").Label("Email").Required(),
		Field(domain.KindSelect, "plan").Options("free", "pro"),
		Button("send").Attr("submit", true),
	).Document("signup", domain.VariantForm)
	require.NoError(t, err)

	assert.Equal(t, "signup", doc.ID)
	assert.Equal(t, domain.VariantForm, doc.Variant)
	require.Len(t, doc.Roots, 3)
	assert.Equal(t, "email", doc.Roots[0].Attributes.String("name"))
	assert.True(t, doc.Roots[0].Attributes.Bool("required"))
	assert.Equal(t, []string{"free", "pro"}, doc.Roots[1].Attributes["options"])
}

func TestBuilder_BuildIsRepeatable(t *testing.T) {
	b := New().Container("box", Button("a"))
	first := b.MustBuild()
	first[0].Children[0].Attributes = domain.Attributes{"label": "mutated"}

	second := b.MustBuild()
	assert.Nil(t, second[0].Children[0].Attributes)
}

func TestBuilder_Errors(t *testing.T) {
	_, err := New().Container("box", Button("a"), Button("a")).Build()
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	_, err = New().Add(Button("")).Build()
	require.Error(t, err)

	assert.Panics(t, func() { New().Add(Divider("x"), Divider("x")).MustBuild() })
}
