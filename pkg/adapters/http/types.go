package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/go-playground/validator/v10"
)

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	ID      string        `json:"id" validate:"omitempty,max=128,docid"`
	Title   string        `json:"title" validate:"max=256"`
	Variant string        `json:"variant" validate:"omitempty,oneof=page form"`
	Roots   []domain.Node `json:"roots"`
}

// NodeBody is a node as sent by clients.
type NodeBody struct {
	ID         string         `json:"id" validate:"max=128"`
	Kind       string         `json:"kind" validate:"required,kind"`
	Attributes map[string]any `json:"attributes"`
	Children   []domain.Node  `json:"children"`
}

func (n NodeBody) toDomain() domain.Node {
	return domain.Node{
		ID:         domain.ID(n.ID),
		Kind:       domain.Kind(n.Kind),
		Attributes: domain.Attributes(n.Attributes),
		Children:   n.Children,
	}
}

// InsertNodeRequest is the body of POST /documents/{docID}/nodes.
// A missing index appends.
type InsertNodeRequest struct {
	Index    *int     `json:"index" validate:"omitempty,min=0"`
	ParentID string   `json:"parent_id"`
	Node     NodeBody `json:"node"`
}

// UpdateNodeRequest is the body of PATCH /documents/{docID}/nodes/{nodeID}.
// A null attribute value deletes the key.
type UpdateNodeRequest struct {
	Attributes map[string]any `json:"attributes" validate:"required"`
}

// MoveNodeRequest is the body of POST /documents/{docID}/move.
type MoveNodeRequest struct {
	ActiveID string `json:"active_id" validate:"required"`
	OverID   string `json:"over_id" validate:"required"`
	Inside   bool   `json:"inside"`
}

// SelectionRequest is the body of PUT /documents/{docID}/selection.
type SelectionRequest struct {
	NodeID string `json:"node_id"`
}

// DocumentResponse wraps the document after an edit.
type DocumentResponse struct {
	Document *domain.Document `json:"document"`
}

// ErrorResponse carries the error and, for rejected edits, the unchanged document.
type ErrorResponse struct {
	Error    string           `json:"error"`
	Document *domain.Document `json:"document,omitempty"`
}

// ChangeMessage is streamed to event subscribers after each committed edit.
type ChangeMessage struct {
	Op         domain.Op        `json:"op"`
	NodeID     domain.ID        `json:"node_id,omitempty"`
	Generation uint64           `json:"generation"`
	Diff       *domain.TreeDiff `json:"diff,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), `/\`)
	})
	_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return domain.Kind(fl.Field().String()).Valid()
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts[i] = fmt.Sprintf("%s is required", fe.Namespace())
		case "kind":
			parts[i] = fmt.Sprintf("%s: unknown kind %q", fe.Namespace(), fe.Value())
		default:
			parts[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
