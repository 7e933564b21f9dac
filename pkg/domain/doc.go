/*
Package domain contains the core models of the Lattice block-tree engine.

It defines the document tree a page or form builder edits: typed Nodes with an
attribute bag and ordered children, immutable Tree snapshots, persisted
Documents and the change events observers receive. This package is kept pure
and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: A block or field. Its ID and Kind never change once created.
  - Tree: The canonical snapshot returned by every mutation, stamped with a generation.
  - Document: A tree plus editing metadata, as handed to persistence adapters.
  - TreeDiff: The added/removed/moved/updated ids between two trees.
*/
package domain
