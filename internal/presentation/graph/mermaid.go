package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Overlay contains editor state to visualize on the graph.
type Overlay struct {
	SelectedID domain.ID
	Changed    []domain.ID
}

// GenerateMermaid produces a Mermaid flowchart of the tree, one edge per
// parent/child link in sibling order. Shapes follow the kind:
//   - container: [[Subroutine]]
//   - section: ([Stadium])
//   - input fields: [/Parallelogram/]
//   - everything else: [Rectangle]
func GenerateMermaid(tree domain.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var parents []domain.ID
	tree.Walk(func(node domain.Node, depth int) bool {
		safeID := sanitizeMermaidID(string(node.ID))

		opener, closer := "[", "]"
		switch {
		case node.Kind == domain.KindContainer:
			opener, closer = "[[", "]]"
		case node.Kind == domain.KindSection:
			opener, closer = "([", "])"
		case node.Kind.IsField():
			opener, closer = "[/", "/]"
		}

		label := fmt.Sprintf("%s <br/> %s", node.ID, node.Kind)
		if caption := caption(node); caption != "" {
			label = fmt.Sprintf("%s <br/> %s", label, caption)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		parents = append(parents[:depth], node.ID)
		if depth > 0 {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(string(parents[depth-1])), safeID)
		}
		return true
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills under both themes.
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		done := make(map[string]bool)
		for _, id := range overlay.Changed {
			safeID := sanitizeMermaidID(string(id))
			if !done[safeID] && safeID != "" {
				done[safeID] = true
				fmt.Fprintf(&sb, "    class %s changed;\n", safeID)
			}
		}
		if overlay.SelectedID != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(string(overlay.SelectedID)))
		}
	}

	return sb.String()
}

// caption shortens the node caption to fit a diagram box.
func caption(n domain.Node) string {
	s := n.Caption()
	if len(s) > 24 {
		s = s[:21] + "..."
	}
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
