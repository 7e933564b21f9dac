package dsl

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// Builder collects root nodes.
type Builder struct {
	roots []*NodeBuilder
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

// Add appends root nodes.
func (b *Builder) Add(nodes ...*NodeBuilder) *Builder {
	b.roots = append(b.roots, nodes...)
	return b
}

// Container appends a root container.
func (b *Builder) Container(id string, children ...*NodeBuilder) *Builder {
	return b.Add(Container(id, children...))
}

// Section appends a root section.
func (b *Builder) Section(id string, children ...*NodeBuilder) *Builder {
	return b.Add(Section(id, children...))
}

// Build returns the roots as domain nodes.
// Every id must be set and unique across the tree.
func (b *Builder) Build() ([]domain.Node, error) {
	seen := make(map[domain.ID]bool)
	roots := make([]domain.Node, len(b.roots))
	for i, nb := range b.roots {
		roots[i] = nb.build()
	}

	var err error
	domain.Tree{Roots: roots}.Walk(func(n domain.Node, _ int) bool {
		switch {
		case err != nil:
		case n.ID == "":
			err = fmt.Errorf("%s node without id", n.Kind)
		case seen[n.ID]:
			err = fmt.Errorf("%w: %s", domain.ErrDuplicateID, n.ID)
		}
		seen[n.ID] = true
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() []domain.Node {
	roots, err := b.Build()
	if err != nil {
		panic(err)
	}
	return roots
}

// Document builds the roots into a new document.
func (b *Builder) Document(id string, variant domain.Variant) (*domain.Document, error) {
	roots, err := b.Build()
	if err != nil {
		return nil, err
	}
	doc := domain.NewDocument(id, variant)
	doc.Roots = roots
	return doc, nil
}
