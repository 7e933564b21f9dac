/*
Package lattice is the mutation engine behind a visual page and form builder.

It owns the canonical block tree of one document and applies the structural
edits a builder UI asks for: insert, remove, update and move. Nesting rules
between block kinds are enforced before anything changes, and a move that
would lose, duplicate or cycle a node is rolled back so the tree is never
left corrupted.

# Concept

A document is an ordered forest of typed Nodes. Each node has an immutable
ID and Kind, an attribute bag and, for containers and sections, ordered
children. The Editor keeps the tree in an arena keyed by id and hands out
immutable snapshots stamped with a generation that grows with every commit.
Persistence, transport (HTTP, MCP) and presentation live in adapters around
the core, following Hexagonal Architecture.

# Key Features

  - Total Mutations: every call returns the canonical tree, plus an error that classifies what happened.
  - Structural Rules: a data-driven table of forbidden ancestor/child pairs (pkg/rules).
  - Transaction Guard: moves are undo-logged and verified; failures restore the pre-move tree exactly.
  - Observable: hooks report every attempt, observers receive each commit with a TreeDiff.

# Usage

	package main

	import (
		"errors"
		"fmt"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/domain"
	)

	func main() {
		ed := lattice.New(domain.VariantPage)

		ed.Insert(0, domain.Node{ID: "hero", Kind: domain.KindContainer}, "")
		ed.Insert(0, domain.Node{ID: "cta", Kind: domain.KindButton}, "hero")

		// Drag the button out of its container, before it.
		tree, err := ed.Move("cta", "hero", false)
		if errors.Is(err, domain.ErrMoveRolledBack) {
			fmt.Println("move undone:", err)
		}
		fmt.Println(len(tree.Roots)) // 2
	}
*/
package lattice
