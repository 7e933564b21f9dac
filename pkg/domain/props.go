package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Typed views over the attribute bag. The bag stays the source of truth; these
// structs give property editors and renderers checked access to the fields a
// kind declares. Keys a view does not declare are left in the bag untouched.

// Style holds free-form style declarations plus breakpoint-scoped overrides.
type Style struct {
	Base       map[string]string            `mapstructure:"style"`
	Responsive map[string]map[string]string `mapstructure:"responsive"`
}

// LayoutProps is the view for container and section kinds.
type LayoutProps struct {
	Style   `mapstructure:",squash"`
	Columns int    `mapstructure:"columns"`
	Gap     string `mapstructure:"gap"`
}

// HeadingProps is the view for heading kinds.
type HeadingProps struct {
	Style `mapstructure:",squash"`
	Text  string `mapstructure:"text"`
	Level int    `mapstructure:"level"`
}

// ParagraphProps is the view for paragraph kinds.
type ParagraphProps struct {
	Style `mapstructure:",squash"`
	Text  string `mapstructure:"text"`
}

// ButtonProps is the view for button kinds.
type ButtonProps struct {
	Style  `mapstructure:",squash"`
	Label  string `mapstructure:"label"`
	URL    string `mapstructure:"url"`
	Submit bool   `mapstructure:"submit"`
}

// MediaProps is the view for image and video kinds.
type MediaProps struct {
	Style `mapstructure:",squash"`
	URL   string `mapstructure:"url"`
	Alt   string `mapstructure:"alt"`
}

// FormProps is the view for embedded sub-forms.
type FormProps struct {
	Style  `mapstructure:",squash"`
	FormID string `mapstructure:"form_id"`
}

// FieldProps is the view for scalar input fields.
type FieldProps struct {
	Style       `mapstructure:",squash"`
	Label       string `mapstructure:"label"`
	Name        string `mapstructure:"name"`
	Placeholder string `mapstructure:"placeholder"`
	Required    bool   `mapstructure:"required"`
	Default     string `mapstructure:"default"`
}

// ChoiceProps is the view for select, radio and checkbox fields.
type ChoiceProps struct {
	FieldProps `mapstructure:",squash"`
	Options    []string `mapstructure:"options"`
	Multiple   bool     `mapstructure:"multiple"`
}

// Decode decodes attrs into the typed view T.
// Decoding is weakly typed so values that crossed a JSON or YAML boundary
// ("true", 2.0) still land in bool and int fields.
func Decode[T any](attrs Attributes) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(attrs)); err != nil {
		return out, fmt.Errorf("failed to decode attributes: %w", err)
	}
	return out, nil
}

// Props decodes the node's attributes into the view declared for its kind.
// The returned value is one of the *Props types above.
func (n Node) Props() (any, error) {
	switch n.Kind {
	case KindContainer, KindSection:
		return Decode[LayoutProps](n.Attributes)
	case KindHeading:
		return Decode[HeadingProps](n.Attributes)
	case KindParagraph:
		return Decode[ParagraphProps](n.Attributes)
	case KindButton:
		return Decode[ButtonProps](n.Attributes)
	case KindImage, KindVideo:
		return Decode[MediaProps](n.Attributes)
	case KindForm:
		return Decode[FormProps](n.Attributes)
	case KindSelect, KindRadio, KindCheckbox:
		return Decode[ChoiceProps](n.Attributes)
	case KindDivider, KindSpacer:
		return Decode[Style](n.Attributes)
	default:
		if n.Kind.IsField() {
			return Decode[FieldProps](n.Attributes)
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, n.Kind)
	}
}

// Caption is the text a person would recognize the node by: a button or
// field label, a heading or paragraph text, or failing those the first of
// the label, text and name attributes that is set.
func (n Node) Caption() string {
	if props, err := n.Props(); err == nil {
		switch p := props.(type) {
		case ButtonProps:
			if p.Label != "" {
				return p.Label
			}
		case HeadingProps:
			if p.Text != "" {
				return p.Text
			}
		case ParagraphProps:
			if p.Text != "" {
				return p.Text
			}
		case FieldProps:
			if p.Label != "" {
				return p.Label
			}
		case ChoiceProps:
			if p.Label != "" {
				return p.Label
			}
		}
	}
	for _, key := range []string{"label", "text", "name"} {
		if s := n.Attributes.String(key); s != "" {
			return s
		}
	}
	return ""
}
