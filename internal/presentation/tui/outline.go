package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Outline renders the document as a nested markdown list. The selected node
// is set in bold.
func Outline(doc *domain.Document) string {
	var sb strings.Builder

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_%s document, %d nodes_\n\n", doc.Variant, doc.Tree().Count())

	if len(doc.Roots) == 0 {
		sb.WriteString("(empty)\n")
		return sb.String()
	}

	doc.Tree().Walk(func(n domain.Node, depth int) bool {
		entry := fmt.Sprintf("`%s` %s", n.Kind, n.ID)
		if n.ID == doc.SelectedID {
			entry = "**" + entry + "**"
		}
		if c := n.Caption(); c != "" {
			entry += fmt.Sprintf(" \"%s\"", c)
		}
		fmt.Fprintf(&sb, "%s- %s\n", strings.Repeat("  ", depth), entry)
		return true
	})
	return sb.String()
}
