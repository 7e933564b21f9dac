package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentsURI = "lattice://documents"
	schemasURI   = "lattice://schemas"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(documentsURI, "Stored Documents",
		mcp.WithResourceDescription("Ids of every stored document"),
		mcp.WithMIMEType("application/json"),
	), s.readDocuments)

	s.mcpServer.AddResource(mcp.NewResource(schemasURI, "Attribute Schemas",
		mcp.WithResourceDescription("Expected attribute types per node kind; a trailing ? marks optional keys"),
		mcp.WithMIMEType("application/json"),
	), s.readSchemas)
}

func (s *Server) readDocuments(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.service.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResource(documentsURI, ids)
}

func (s *Server) readSchemas(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(schemasURI, schema.Catalog())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
