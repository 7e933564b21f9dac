// Package validator lints persisted documents without loading them into an editor.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/codec"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/aretw0/lattice/pkg/schema"
)

// Severity grades a finding.
type Severity string

const (
	// SeverityError marks a broken tree invariant. The editor rejects or
	// would have rejected the document.
	SeverityError Severity = "error"
	// SeverityWarning marks attribute shape problems and stale references.
	SeverityWarning Severity = "warning"
)

// Finding is one problem in a document.
type Finding struct {
	Severity Severity `json:"severity"`
	NodeID   domain.ID `json:"node_id,omitempty"`
	Message  string    `json:"message"`
}

func (f Finding) String() string {
	if f.NodeID == "" {
		return fmt.Sprintf("%s: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.NodeID, f.Message)
}

type frame struct {
	node      *domain.Node
	ancestors []domain.Kind // nearest first
}

// Check walks doc and reports every invariant violation and attribute warning.
// A nil table selects the built-in table for the document variant.
func Check(doc *domain.Document, table *rules.Table) []Finding {
	if doc == nil {
		return nil
	}
	if table == nil {
		table = rules.ForVariant(doc.Variant)
	}
	if doc.Sealed != "" {
		return []Finding{{Severity: SeverityWarning, Message: "document is sealed, contents not checked"}}
	}

	var (
		findings []Finding
		seen     = make(map[domain.ID]bool)
		stack    = make([]frame, 0, len(doc.Roots))
	)
	report := func(sev Severity, id domain.ID, format string, args ...any) {
		findings = append(findings, Finding{Severity: sev, NodeID: id, Message: fmt.Sprintf(format, args...)})
	}

	for i := len(doc.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: &doc.Roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		switch {
		case n.ID == "":
			report(SeverityError, "", "%s node without id", n.Kind)
		case seen[n.ID]:
			report(SeverityError, n.ID, "duplicate id")
		}
		seen[n.ID] = true

		if !n.Kind.Valid() || !table.Known(n.Kind) {
			report(SeverityError, n.ID, "unknown kind %q", n.Kind)
		} else {
			if len(n.Children) > 0 && !table.AcceptsChildren(n.Kind) {
				report(SeverityError, n.ID, "%s does not accept children", n.Kind)
			}
			for _, anc := range f.ancestors {
				if !table.CanNest(n.Kind, anc) {
					report(SeverityError, n.ID, "%s cannot be placed inside %s", n.Kind, anc)
					break
				}
			}
			if err := schema.Validate(table.Schema(n.Kind), n.Attributes); err != nil {
				for _, e := range schema.ValidationErrors(err) {
					report(SeverityWarning, n.ID, "%s", e)
				}
			}
		}

		if len(f.ancestors) >= codec.MaxDepth {
			report(SeverityError, n.ID, "nested deeper than %d levels", codec.MaxDepth)
			continue
		}

		if len(n.Children) == 0 {
			continue
		}
		chain := make([]domain.Kind, 0, len(f.ancestors)+1)
		chain = append(chain, n.Kind)
		chain = append(chain, f.ancestors...)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: &n.Children[i], ancestors: chain})
		}
	}

	if doc.SelectedID != "" && !seen[doc.SelectedID] {
		report(SeverityWarning, doc.SelectedID, "selected node does not exist")
	}
	return findings
}

// Validate runs Check and returns an error listing the error-level findings.
func Validate(doc *domain.Document, table *rules.Table) error {
	var errs []string
	for _, f := range Check(doc, table) {
		if f.Severity == SeverityError {
			errs = append(errs, f.String())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}
