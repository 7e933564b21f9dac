package domain

// Kind is the closed tag selecting a node's semantic type.
type Kind string

// Layout kinds.
const (
	// KindContainer is a column container. Its children are layout slots.
	KindContainer Kind = "container"
	// KindSection is a full-width block.
	KindSection Kind = "section"
)

// Content kinds.
const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindButton    Kind = "button"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindDivider   Kind = "divider"
	KindSpacer    Kind = "spacer"
	// KindForm embeds another form by reference.
	KindForm Kind = "form"
)

// Input field kinds.
const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindPhone    Kind = "phone"
	KindURL      Kind = "url"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindCheckbox Kind = "checkbox"
	KindDate     Kind = "date"
	KindFile     Kind = "file"
)

var allKinds = []Kind{
	KindContainer, KindSection,
	KindHeading, KindParagraph, KindButton, KindImage, KindVideo, KindDivider, KindSpacer, KindForm,
	KindText, KindEmail, KindNumber, KindPhone, KindURL, KindTextarea, KindSelect, KindRadio,
	KindCheckbox, KindDate, KindFile,
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsField reports whether k is an input field kind.
func (k Kind) IsField() bool {
	switch k {
	case KindText, KindEmail, KindNumber, KindPhone, KindURL, KindTextarea,
		KindSelect, KindRadio, KindCheckbox, KindDate, KindFile:
		return true
	}
	return false
}

// Variant selects which builder produced a document.
type Variant string

const (
	// VariantPage is the nested page builder.
	VariantPage Variant = "page"
	// VariantForm is the flat form builder: no node holds children.
	VariantForm Variant = "form"
)

// Well-known attribute keys.
const (
	AttrLabel       = "label"
	AttrText        = "text"
	AttrRequired    = "required"
	AttrPlaceholder = "placeholder"
	AttrOptions     = "options"
	AttrURL         = "url"
	AttrStyle       = "style"
	AttrResponsive  = "responsive"
)
