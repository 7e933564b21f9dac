/*
Package ports defines the driving and driven ports (interfaces) of the Lattice engine.

These interfaces decouple the core logic from external implementations, allowing
documents to live in various storage backends and to be edited from any transport.

# Key Interfaces

  - DocumentStore: Persists and loads documents (memory, file, Redis).
  - DocumentService: Serialized editing of stored documents, used by HTTP, MCP and the CLI.
  - DistributedLocker: Provides distributed locking for concurrent access to one document.
*/
package ports
