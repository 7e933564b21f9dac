package domain

import (
	"time"
)

// Op names a mutation.
type Op string

const (
	OpInsert Op = "insert"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
	OpMove   Op = "move"
	OpLoad   Op = "load"
	OpSelect Op = "select"
)

// Outcome classifies how a mutation ended.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeNoop       Outcome = "noop"
	OutcomeRejected   Outcome = "rejected"
	OutcomeRolledBack Outcome = "rolled_back"
)

// ChangeEvent is delivered to observers after each committed mutation.
type ChangeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Op        Op        `json:"op"`
	NodeID    ID        `json:"node_id,omitempty"`
	Tree      Tree      `json:"tree"`
	Diff      *TreeDiff `json:"diff,omitempty"`
}

// MutationEvent reports every mutation attempt, committed or not.
type MutationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Op        Op        `json:"op"`
	NodeID    ID        `json:"node_id,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Nodes     int       `json:"nodes"`
	Err       error     `json:"-"`
}

// Hooks defines callbacks for editor observability.
type Hooks struct {
	OnMutation func(*MutationEvent)
	OnChange   func(*ChangeEvent)
}
