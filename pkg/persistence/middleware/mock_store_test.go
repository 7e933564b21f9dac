package middleware_test

import (
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/ports"
)

// NewMockStore returns the in-memory adapter, which stores deep copies.
func NewMockStore() ports.DocumentStore {
	return memory.NewStore()
}
