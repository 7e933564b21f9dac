package ports

import (
	"context"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
)

// DocumentService is the driving port used by transport adapters (HTTP, MCP, CLI).
// Every call on a document is serialized with every other call on the same document.
type DocumentService interface {
	// Edit opens the document, runs fn against it and persists the result when it changed.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Edit(ctx context.Context, id string, fn func(*lattice.Editor) error) (*domain.Document, error)

	// Create stores a new document. An empty id is generated.
	// Returns domain.ErrDocumentExists if the id is taken.
	Create(ctx context.Context, doc *domain.Document) (*domain.Document, error)

	// Get returns the stored document.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, id string) error

	// List returns all document ids.
	List(ctx context.Context) ([]string, error)
}
