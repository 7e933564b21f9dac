package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListResult is returned by list_documents.
type ListResult struct {
	Documents []string `json:"documents" jsonschema_description:"Stored document ids"`
}

// EditResult is returned by every editing tool. A rejected edit is not a
// tool failure: Rejected explains why and Document is the unchanged tree.
type EditResult struct {
	Document *domain.Document `json:"document" jsonschema_description:"Document after the call"`
	Rejected string           `json:"rejected,omitempty" jsonschema_description:"Why the edit was refused, if it was"`
}

// ValidateResult is returned by validate_document.
type ValidateResult struct {
	Valid    bool                `json:"valid"`
	Findings []validator.Finding `json:"findings"`
}

// NodeArgs is a node as sent by agents.
type NodeArgs struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind" validate:"required"`
	Attributes map[string]any `json:"attributes"`
	Children   []domain.Node  `json:"children"`
}

type DocumentArgs struct {
	DocumentID string `json:"document_id" validate:"required"`
}

type CreateArgs struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Variant    string `json:"variant" validate:"omitempty,oneof=page form"`
}

type InsertArgs struct {
	DocumentID string   `json:"document_id" validate:"required"`
	ParentID   string   `json:"parent_id"`
	Index      *int     `json:"index" validate:"omitempty,min=0"`
	Node       NodeArgs `json:"node"`
}

type NodeIDArgs struct {
	DocumentID string `json:"document_id" validate:"required"`
	NodeID     string `json:"node_id"`
}

type UpdateArgs struct {
	DocumentID string         `json:"document_id" validate:"required"`
	NodeID     string         `json:"node_id" validate:"required"`
	Attributes map[string]any `json:"attributes" validate:"required"`
}

type MoveArgs struct {
	DocumentID string `json:"document_id" validate:"required"`
	ActiveID   string `json:"active_id" validate:"required"`
	OverID     string `json:"over_id" validate:"required"`
	Inside     bool   `json:"inside"`
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (ListResult, error) {
	ids, err := s.service.List(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ListResult{Documents: ids}, nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.service.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}

	switch request.GetString("format", "json") {
	case "outline":
		return mcp.NewToolResultText(tui.Outline(doc)), nil
	case "mermaid":
		return mcp.NewToolResultText(graph.GenerateMermaid(doc.Tree(), &graph.Overlay{SelectedID: doc.SelectedID})), nil
	default:
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args CreateArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	doc := domain.NewDocument(args.DocumentID, domain.Variant(args.Variant))
	doc.Title = args.Title
	created, err := s.service.Create(ctx, doc)
	if err != nil {
		return EditResult{}, fmt.Errorf("create failed: %w", err)
	}
	return EditResult{Document: created}, nil
}

func (s *Server) handleInsert(ctx context.Context, _ mcp.CallToolRequest, args InsertArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	index := math.MaxInt
	if args.Index != nil {
		index = *args.Index
	}
	node := domain.Node{
		ID:         domain.ID(args.Node.ID),
		Kind:       domain.Kind(args.Node.Kind),
		Attributes: domain.Attributes(args.Node.Attributes),
		Children:   args.Node.Children,
	}
	return s.edit(ctx, args.DocumentID, func(ed *lattice.Editor) error {
		_, err := ed.Insert(index, node, domain.ID(args.ParentID))
		return err
	})
}

func (s *Server) handleRemove(ctx context.Context, _ mcp.CallToolRequest, args NodeIDArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	return s.edit(ctx, args.DocumentID, func(ed *lattice.Editor) error {
		_, err := ed.Remove(domain.ID(args.NodeID))
		return err
	})
}

func (s *Server) handleUpdate(ctx context.Context, _ mcp.CallToolRequest, args UpdateArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	return s.edit(ctx, args.DocumentID, func(ed *lattice.Editor) error {
		_, err := ed.Update(domain.ID(args.NodeID), domain.Attributes(args.Attributes))
		return err
	})
}

func (s *Server) handleMove(ctx context.Context, _ mcp.CallToolRequest, args MoveArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	return s.edit(ctx, args.DocumentID, func(ed *lattice.Editor) error {
		_, err := ed.Move(domain.ID(args.ActiveID), domain.ID(args.OverID), args.Inside)
		return err
	})
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args NodeIDArgs) (EditResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return EditResult{}, err
	}
	return s.edit(ctx, args.DocumentID, func(ed *lattice.Editor) error {
		if args.NodeID == "" {
			ed.ClearSelection()
			return nil
		}
		_, err := ed.Select(domain.ID(args.NodeID))
		return err
	})
}

func (s *Server) handleValidate(ctx context.Context, _ mcp.CallToolRequest, args DocumentArgs) (ValidateResult, error) {
	if err := s.validate.Struct(args); err != nil {
		return ValidateResult{}, err
	}
	doc, err := s.service.Get(ctx, args.DocumentID)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("get failed: %w", err)
	}
	findings := validator.Check(doc, s.rules)
	res := ValidateResult{Valid: true, Findings: findings}
	if res.Findings == nil {
		res.Findings = []validator.Finding{}
	}
	for _, f := range findings {
		if f.Severity == validator.SeverityError {
			res.Valid = false
		}
	}
	return res, nil
}

// edit runs fn through the service. Tree rules refusing the edit become
// EditResult.Rejected; anything else fails the tool call.
func (s *Server) edit(ctx context.Context, docID string, fn func(*lattice.Editor) error) (EditResult, error) {
	doc, err := s.service.Edit(ctx, docID, fn)
	if err == nil {
		return EditResult{Document: doc}, nil
	}
	if doc != nil && isRejection(err) {
		s.logger.Info("MCP edit rejected", "document", docID, "err", err)
		return EditResult{Document: doc, Rejected: err.Error()}, nil
	}
	return EditResult{}, fmt.Errorf("edit failed: %w", err)
}

func isRejection(err error) bool {
	for _, target := range []error{
		domain.ErrNodeNotFound,
		domain.ErrDuplicateID,
		domain.ErrNestingForbidden,
		domain.ErrNotContainer,
		domain.ErrInvalidKind,
		domain.ErrTooDeep,
		domain.ErrMoveRolledBack,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
