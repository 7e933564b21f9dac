package validator

import (
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.String()
	}
	return out
}

func TestCheck_Clean(t *testing.T) {
	doc := domain.NewDocument("ok", domain.VariantPage)
	doc.Roots = []domain.Node{
		{ID: "hero", Kind: domain.KindSection, Children: []domain.Node{
			{ID: "cols", Kind: domain.KindContainer, Children: []domain.Node{
				{ID: "img", Kind: domain.KindImage, Attributes: domain.Attributes{"url": "a.png"}},
			}},
		}},
	}
	doc.SelectedID = "img"

	assert.Empty(t, Check(doc, nil))
	assert.NoError(t, Validate(doc, nil))
}

func TestCheck_Violations(t *testing.T) {
	doc := domain.NewDocument("bad", domain.VariantPage)
	doc.Roots = []domain.Node{
		{ID: "box", Kind: domain.KindContainer, Children: []domain.Node{
			{ID: "inner", Kind: domain.KindContainer, Children: []domain.Node{
				{ID: "hero", Kind: domain.KindSection},
			}},
		}},
		{ID: "btn", Kind: domain.KindButton, Children: []domain.Node{
			{ID: "box", Kind: domain.KindDivider},
		}},
		{ID: "x", Kind: "marquee"},
	}
	doc.SelectedID = "gone"

	findings := Check(doc, rules.Page())
	assert.Equal(t, []string{
		"error: hero: section cannot be placed inside container",
		"error: btn: button does not accept children",
		"error: box: duplicate id",
		`error: x: unknown kind "marquee"`,
		"warning: gone: selected node does not exist",
	}, messages(findings))

	err := Validate(doc, rules.Page())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 4 errors")
}

func TestCheck_AttributeWarnings(t *testing.T) {
	doc := domain.NewDocument("attrs", domain.VariantForm)
	doc.Roots = []domain.Node{
		{ID: "pick", Kind: domain.KindSelect, Attributes: domain.Attributes{"required": "yes"}},
	}

	findings := Check(doc, nil)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, SeverityWarning, f.Severity)
		assert.Equal(t, domain.ID("pick"), f.NodeID)
	}
	assert.NoError(t, Validate(doc, nil), "warnings are not errors")
}

func TestCheck_FormIsFlat(t *testing.T) {
	doc := domain.NewDocument("form", domain.VariantForm)
	doc.Roots = []domain.Node{
		{ID: "name", Kind: domain.KindText, Children: []domain.Node{{ID: "x", Kind: domain.KindText}}},
	}
	assert.Equal(t, []string{"error: name: text does not accept children"}, messages(Check(doc, nil)))
}

func TestCheck_Sealed(t *testing.T) {
	doc := domain.NewDocument("secret", domain.VariantPage)
	doc.Sealed = "abc"
	findings := Check(doc, nil)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
}
