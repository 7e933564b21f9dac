package schema

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

func styled(s Schema) Schema {
	s["style"] = Optional(Map(Any()))
	s["responsive"] = Optional(Map(Map(Any())))
	return s
}

func headingLevel() Type {
	return Custom("int", func(v any) error {
		if err := Int().Validate(v); err != nil {
			return err
		}
		n := fmt.Sprint(v)
		if len(n) != 1 || n[0] < '1' || n[0] > '6' {
			return fmt.Errorf("heading level must be 1-6, got %v", v)
		}
		return nil
	})
}

func field(extra Schema) Schema {
	s := styled(Schema{
		"label":       Optional(String()),
		"name":        Optional(String()),
		"placeholder": Optional(String()),
		"required":    Optional(Bool()),
		"default":     Optional(Any()),
	})
	for k, v := range extra {
		s[k] = v
	}
	return s
}

// ForKind returns the attribute schema of a kind, or nil for an unknown kind.
// A fresh schema is built on every call so callers may extend it.
func ForKind(kind domain.Kind) Schema {
	switch kind {
	case domain.KindContainer, domain.KindSection:
		return styled(Schema{
			"columns": Optional(Int()),
			"gap":     Optional(String()),
		})
	case domain.KindHeading:
		return styled(Schema{
			"text":  Optional(String()),
			"level": Optional(headingLevel()),
		})
	case domain.KindParagraph:
		return styled(Schema{"text": Optional(String())})
	case domain.KindButton:
		return styled(Schema{
			"label":  Optional(String()),
			"url":    Optional(String()),
			"submit": Optional(Bool()),
		})
	case domain.KindImage, domain.KindVideo:
		return styled(Schema{
			"url": String(),
			"alt": Optional(String()),
		})
	case domain.KindDivider, domain.KindSpacer:
		return styled(Schema{})
	case domain.KindForm:
		return styled(Schema{"form_id": String()})
	case domain.KindSelect, domain.KindRadio:
		return field(Schema{
			"options":  Slice(String()),
			"multiple": Optional(Bool()),
		})
	case domain.KindCheckbox:
		// A lone checkbox is a boolean; options turn it into a group.
		return field(Schema{"options": Optional(Slice(String()))})
	case domain.KindNumber:
		return field(Schema{
			"min":  Optional(Float()),
			"max":  Optional(Float()),
			"step": Optional(Float()),
		})
	case domain.KindTextarea:
		return field(Schema{"rows": Optional(Int())})
	case domain.KindFile:
		return field(Schema{"accept": Optional(Slice(String()))})
	}
	if kind.IsField() {
		return field(nil)
	}
	return nil
}

// Catalog returns the schema of every kind, keyed by kind name.
func Catalog() map[string]Schema {
	out := make(map[string]Schema)
	for _, k := range domain.Kinds() {
		out[string(k)] = ForKind(k)
	}
	return out
}
