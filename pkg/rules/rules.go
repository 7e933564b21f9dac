// Package rules decides whether a proposed parent/child relationship is legal
// for the node kinds involved. It is a pure lookup over a data table.
package rules

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// KindRule holds the structural flags of one kind.
type KindRule struct {
	Kind domain.Kind `yaml:"kind" json:"kind"`

	// AcceptsChildren marks kinds that hold child nodes.
	AcceptsChildren bool `yaml:"accepts_children" json:"accepts_children"`

	// NestingContainer marks kinds whose children are layout slots.
	NestingContainer bool `yaml:"nesting_container" json:"nesting_container"`

	// NonNestable marks kinds that may never sit below a nesting container.
	NonNestable bool `yaml:"non_nestable" json:"non_nestable"`

	// Attributes overrides the built-in attribute schema of the kind.
	Attributes schema.Schema `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Pair forbids Child from being a descendant of Ancestor.
type Pair struct {
	Child    domain.Kind `yaml:"child" json:"child"`
	Ancestor domain.Kind `yaml:"ancestor" json:"ancestor"`
}

// Table is the structural rule set.
// The zero value accepts children nowhere and forbids nothing.
type Table struct {
	Name      string     `yaml:"name" json:"name"`
	Kinds     []KindRule `yaml:"kinds" json:"kinds"`
	Forbidden []Pair     `yaml:"forbidden" json:"forbidden"`

	index     map[domain.Kind]KindRule
	forbidden map[Pair]struct{}
}

// Violation describes a rejected placement.
type Violation struct {
	Child    domain.Kind
	Ancestor domain.Kind
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s cannot be placed inside %s", v.Child, v.Ancestor)
}

// Unwrap lets callers match the violation with errors.Is(err, domain.ErrNestingForbidden).
func (v *Violation) Unwrap() error { return domain.ErrNestingForbidden }

// Compile builds the lookup indexes. Pairs implied by the NonNestable and
// NestingContainer flags are added to the explicit forbidden list.
func (t *Table) Compile() *Table {
	t.index = make(map[domain.Kind]KindRule, len(t.Kinds))
	t.forbidden = make(map[Pair]struct{}, len(t.Forbidden))
	for _, k := range t.Kinds {
		t.index[k.Kind] = k
	}
	for _, p := range t.Forbidden {
		t.forbidden[p] = struct{}{}
	}
	for _, child := range t.Kinds {
		if !child.NonNestable {
			continue
		}
		for _, parent := range t.Kinds {
			if parent.NestingContainer {
				t.forbidden[Pair{Child: child.Kind, Ancestor: parent.Kind}] = struct{}{}
			}
		}
	}
	return t
}

func (t *Table) ensure() {
	if t.index == nil {
		t.Compile()
	}
}

// Rule returns the flags for kind.
func (t *Table) Rule(kind domain.Kind) (KindRule, bool) {
	t.ensure()
	r, ok := t.index[kind]
	return r, ok
}

// Known reports whether the table declares kind.
func (t *Table) Known(kind domain.Kind) bool {
	_, ok := t.Rule(kind)
	return ok
}

// AcceptsChildren reports whether kind may hold children at all.
func (t *Table) AcceptsChildren(kind domain.Kind) bool {
	r, _ := t.Rule(kind)
	return r.AcceptsChildren
}

// Schema returns the attribute schema for kind: the table's override when it
// declares one, the built-in schema otherwise.
func (t *Table) Schema(kind domain.Kind) schema.Schema {
	if r, ok := t.Rule(kind); ok && r.Attributes != nil {
		return r.Attributes
	}
	return schema.ForKind(kind)
}

// CanNest reports whether child may be a descendant of parent.
func (t *Table) CanNest(child, parent domain.Kind) bool {
	t.ensure()
	_, forbidden := t.forbidden[Pair{Child: child, Ancestor: parent}]
	return !forbidden
}

// Check validates placing a subtree whose nodes have the given kinds below a
// landing chain. landing[0] is the direct parent and the rest are its ancestors,
// nearest first. An empty landing chain means the root sequence, which accepts anything.
func (t *Table) Check(subtree []domain.Kind, landing []domain.Kind) error {
	if len(landing) == 0 {
		return nil
	}
	if !t.AcceptsChildren(landing[0]) {
		return fmt.Errorf("%w: %s", domain.ErrNotContainer, landing[0])
	}
	for _, child := range subtree {
		for _, anc := range landing {
			if !t.CanNest(child, anc) {
				return &Violation{Child: child, Ancestor: anc}
			}
		}
	}
	return nil
}

// CheckTree validates placing the value subtree n below a landing chain. Unlike
// Check it also walks the pairs inside n: every node holding children must
// accept them, and every node must be allowed under its ancestors within n
// followed by the landing chain.
func (t *Table) CheckTree(n domain.Node, landing []domain.Kind) error {
	if len(landing) > 0 && !t.AcceptsChildren(landing[0]) {
		return fmt.Errorf("%w: %s", domain.ErrNotContainer, landing[0])
	}

	type frame struct {
		node      domain.Node
		ancestors []domain.Kind
	}
	stack := []frame{{n, landing}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, anc := range f.ancestors {
			if !t.CanNest(f.node.Kind, anc) {
				return &Violation{Child: f.node.Kind, Ancestor: anc}
			}
		}
		if len(f.node.Children) == 0 {
			continue
		}
		if !t.AcceptsChildren(f.node.Kind) {
			return fmt.Errorf("%w: %s on node %s", domain.ErrNotContainer, f.node.Kind, f.node.ID)
		}
		chain := append([]domain.Kind{f.node.Kind}, f.ancestors...)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], chain})
		}
	}
	return nil
}

// String lists the forbidden pairs, for diagnostics.
func (t *Table) String() string {
	t.ensure()
	parts := make([]string, 0, len(t.forbidden))
	for p := range t.forbidden {
		parts = append(parts, fmt.Sprintf("%s!<%s", p.Child, p.Ancestor))
	}
	return fmt.Sprintf("rules(%s: %s)", t.Name, strings.Join(parts, ", "))
}

func leaves(kinds ...domain.Kind) []KindRule {
	out := make([]KindRule, len(kinds))
	for i, k := range kinds {
		out[i] = KindRule{Kind: k}
	}
	return out
}

var contentKinds = []domain.Kind{
	domain.KindHeading, domain.KindParagraph, domain.KindButton, domain.KindImage,
	domain.KindVideo, domain.KindDivider, domain.KindSpacer, domain.KindForm,
	domain.KindText, domain.KindEmail, domain.KindNumber, domain.KindPhone, domain.KindURL,
	domain.KindTextarea, domain.KindSelect, domain.KindRadio, domain.KindCheckbox,
	domain.KindDate, domain.KindFile,
}

// Page returns the page-builder table: containers and sections hold children,
// and a section may never sit below a container.
func Page() *Table {
	t := &Table{
		Name: "page",
		Kinds: append([]KindRule{
			{Kind: domain.KindContainer, AcceptsChildren: true, NestingContainer: true},
			{Kind: domain.KindSection, AcceptsChildren: true, NonNestable: true},
		}, leaves(contentKinds...)...),
	}
	return t.Compile()
}

// Form returns the form-builder table: a flat sequence where nothing holds children.
func Form() *Table {
	t := &Table{
		Name:  "form",
		Kinds: leaves(append([]domain.Kind{domain.KindContainer, domain.KindSection}, contentKinds...)...),
	}
	return t.Compile()
}

// ForVariant returns the built-in table for a document variant.
func ForVariant(v domain.Variant) *Table {
	if v == domain.VariantForm {
		return Form()
	}
	return Page()
}
