package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes a DocumentService as MCP tools so agents can edit trees.
type Server struct {
	service   ports.DocumentService
	mcpServer *server.MCPServer
	logger    *slog.Logger
	validate  *validator.Validate
	rules     *rules.Table
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRules sets the table validate_document lints against. Without it each
// document is checked against the built-in table of its variant.
func WithRules(t *rules.Table) Option {
	return func(s *Server) {
		s.rules = t
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc ports.DocumentService, opts ...Option) *Server {
	s := &Server{
		service:   svc,
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version)),
		logger:    logging.NewNop(),
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	docID := mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to operate on"))

	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the ids of all stored documents."),
		mcp.WithOutputSchema[ListResult](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read a document. format=json returns the tree, outline a markdown outline, mermaid a flowchart."),
		docID,
		mcp.WithString("format", mcp.Enum("json", "outline", "mermaid"), mcp.Description("Representation (default json)")),
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create an empty document. The id is generated when omitted."),
		mcp.WithString("document_id", mcp.Description("Id of the new document")),
		mcp.WithString("title", mcp.Description("Title")),
		mcp.WithString("variant", mcp.Enum("page", "form"), mcp.Description("page allows nesting, form is flat")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("insert_node",
		mcp.WithDescription("Insert a node (and its children) at index among the children of parent_id; omit parent_id for the root level and index to append."),
		docID,
		mcp.WithObject("node", mcp.Required(), mcp.Description(`Node as {"id","kind","attributes","children"}`)),
		mcp.WithString("parent_id", mcp.Description("Parent node id")),
		mcp.WithNumber("index", mcp.Description("Position among siblings")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleInsert))

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and its whole subtree."),
		docID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to remove")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription("Merge attributes into a node. A null value deletes the key."),
		docID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to update")),
		mcp.WithObject("attributes", mcp.Required(), mcp.Description("Attribute patch")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	s.mcpServer.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move active_id next to over_id (taking its place) or, with inside=true, to the end of over_id's children."),
		docID,
		mcp.WithString("active_id", mcp.Required(), mcp.Description("Node being moved")),
		mcp.WithString("over_id", mcp.Required(), mcp.Description("Drop target")),
		mcp.WithBoolean("inside", mcp.Description("Drop inside the target")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleMove))

	s.mcpServer.AddTool(mcp.NewTool("select_node",
		mcp.WithDescription("Select a node; an empty node_id clears the selection."),
		docID,
		mcp.WithString("node_id", mcp.Description("Node to select")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Lint a document: nesting violations, duplicate ids and attribute shape warnings."),
		docID,
		mcp.WithOutputSchema[ValidateResult](),
	), mcp.NewStructuredToolHandler(s.handleValidate))
}
