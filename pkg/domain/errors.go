package domain

import "errors"

// Lookup errors
var (
	// ErrNodeNotFound is returned when an id does not exist in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDocumentNotFound is returned when a document id cannot be found in the store.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists is returned when creating a document whose id is taken.
	ErrDocumentExists = errors.New("document already exists")
)

// Structural errors. The tree is left untouched when these are returned.
var (
	// ErrDuplicateID is returned when an inserted node reuses an id already in the tree.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrNestingForbidden is returned when a non-nestable kind would land under a nesting container.
	ErrNestingForbidden = errors.New("nesting forbidden")

	// ErrNotContainer is returned when a node would be placed inside a kind that holds no children.
	ErrNotContainer = errors.New("target does not accept children")

	// ErrInvalidKind is returned for a kind outside the closed set.
	ErrInvalidKind = errors.New("invalid node kind")

	// ErrTooDeep is returned when a mutation would exceed the configured depth bound.
	ErrTooDeep = errors.New("tree too deep")
)

// Integrity errors
var (
	// ErrMoveRolledBack is returned when a move failed its post-commit check and
	// the pre-move tree was restored.
	ErrMoveRolledBack = errors.New("move rolled back")

	// ErrCycle indicates a node would become its own descendant.
	ErrCycle = errors.New("cycle detected")

	// ErrIntegrity indicates the arena and the reachable tree disagree.
	ErrIntegrity = errors.New("tree integrity violated")
)
