package domain

import "time"

// Document is the persisted form of a tree plus its editing metadata.
type Document struct {
	ID      string  `json:"id" yaml:"id"`
	Title   string  `json:"title,omitempty" yaml:"title,omitempty"`
	Variant Variant `json:"variant,omitempty" yaml:"variant,omitempty"`
	Roots   []Node  `json:"roots" yaml:"roots"`

	// SelectedID is the node being edited when the document was saved.
	SelectedID ID `json:"selected_id,omitempty" yaml:"selected_id,omitempty"`

	// Sealed holds an encrypted payload when the document was written through
	// the encryption middleware. Roots is empty in that case.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewDocument creates an empty document of the given variant.
func NewDocument(id string, variant Variant) *Document {
	if variant == "" {
		variant = VariantPage
	}
	return &Document{
		ID:      id,
		Variant: variant,
		Roots:   []Node{},
	}
}

// Tree returns the document's roots as a tree snapshot at generation 0.
func (d *Document) Tree() Tree {
	return Tree{Roots: d.Roots}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := *d
	out.Roots = Tree{Roots: d.Roots}.Clone().Roots
	return &out
}
