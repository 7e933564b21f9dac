package dsl

import "github.com/aretw0/lattice/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     domain.Node
	children []*NodeBuilder
}

// Node starts a node of any kind.
func Node(kind domain.Kind, id string, children ...*NodeBuilder) *NodeBuilder {
	return &NodeBuilder{
		node:     domain.Node{ID: domain.ID(id), Kind: kind},
		children: children,
	}
}

func Container(id string, children ...*NodeBuilder) *NodeBuilder {
	return Node(domain.KindContainer, id, children...)
}

func Section(id string, children ...*NodeBuilder) *NodeBuilder {
	return Node(domain.KindSection, id, children...)
}

func Heading(id, text string) *NodeBuilder {
	return Node(domain.KindHeading, id).Text(text)
}

func Paragraph(id, text string) *NodeBuilder {
	return Node(domain.KindParagraph, id).Text(text)
}

func Button(id string) *NodeBuilder  { return Node(domain.KindButton, id) }
func Divider(id string) *NodeBuilder { return Node(domain.KindDivider, id) }
func Spacer(id string) *NodeBuilder  { return Node(domain.KindSpacer, id) }

func Image(id, url string) *NodeBuilder {
	return Node(domain.KindImage, id).Attr("url", url)
}

// Field starts an input field; name defaults to the id.
func Field(kind domain.Kind, id string) *NodeBuilder {
	return Node(kind, id).Attr("name", id)
}

// Attr sets one attribute.
func (n *NodeBuilder) Attr(key string, value any) *NodeBuilder {
	if n.node.Attributes == nil {
		n.node.Attributes = make(domain.Attributes)
	}
	n.node.Attributes[key] = value
	return n
}

func (n *NodeBuilder) Label(label string) *NodeBuilder { return n.Attr("label", label) }
func (n *NodeBuilder) Text(text string) *NodeBuilder   { return n.Attr("text", text) }
func (n *NodeBuilder) Level(level int) *NodeBuilder    { return n.Attr("level", level) }
func (n *NodeBuilder) Required() *NodeBuilder          { return n.Attr("required", true) }

// Options sets the choices of a select, radio or checkbox group.
func (n *NodeBuilder) Options(options ...string) *NodeBuilder {
	return n.Attr("options", options)
}

// Style sets one base style declaration.
func (n *NodeBuilder) Style(property, value string) *NodeBuilder {
	style, _ := n.node.Attributes["style"].(map[string]any)
	if style == nil {
		style = make(map[string]any)
	}
	style[property] = value
	return n.Attr("style", style)
}

// Responsive sets a style declaration for one breakpoint.
func (n *NodeBuilder) Responsive(breakpoint, property, value string) *NodeBuilder {
	responsive, _ := n.node.Attributes["responsive"].(map[string]any)
	if responsive == nil {
		responsive = make(map[string]any)
	}
	bp, _ := responsive[breakpoint].(map[string]any)
	if bp == nil {
		bp = make(map[string]any)
	}
	bp[property] = value
	responsive[breakpoint] = bp
	return n.Attr("responsive", responsive)
}

// Children appends child nodes.
func (n *NodeBuilder) Children(children ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, children...)
	return n
}

func (n *NodeBuilder) build() domain.Node {
	out := n.node.Clone()
	if len(n.children) > 0 {
		out.Children = make([]domain.Node, len(n.children))
		for i, c := range n.children {
			out.Children[i] = c.build()
		}
	}
	return out
}
