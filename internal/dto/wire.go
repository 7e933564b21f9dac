package dto

// WireDocument is the loose on-disk shape of a document.
// It uses "mapstructure" tags so JSON and YAML payloads decode the same way.
// Builders have stored the top-level sequence under different keys over time;
// the first non-empty one of Roots, Elements and Fields wins.
type WireDocument struct {
	ID         string `json:"id" mapstructure:"id"`
	Title      string `json:"title" mapstructure:"title"`
	Variant    string `json:"variant" mapstructure:"variant"`
	SelectedID string `json:"selected_id" mapstructure:"selected_id"`
	Sealed     string `json:"sealed" mapstructure:"sealed"`
	UpdatedAt  any    `json:"updated_at" mapstructure:"updated_at"`

	Roots    []any `json:"roots" mapstructure:"roots"`
	Elements []any `json:"elements" mapstructure:"elements"`
	Fields   []any `json:"fields" mapstructure:"fields"`
}

// Sequence returns the top-level entries and the key they were found under.
func (w WireDocument) Sequence() ([]any, string) {
	switch {
	case len(w.Roots) > 0:
		return w.Roots, "roots"
	case len(w.Elements) > 0:
		return w.Elements, "elements"
	case len(w.Fields) > 0:
		return w.Fields, "fields"
	}
	return nil, "roots"
}

// WireNode is the loose shape of one node.
// Kind and Type are aliases, as are Attributes and Props.
type WireNode struct {
	ID         string         `json:"id" mapstructure:"id"`
	Kind       string         `json:"kind" mapstructure:"kind"`
	Type       string         `json:"type" mapstructure:"type"`
	Attributes map[string]any `json:"attributes" mapstructure:"attributes"`
	Props      map[string]any `json:"props" mapstructure:"props"`
	Children   []any          `json:"children" mapstructure:"children"`
}

// KindName resolves the Kind/Type alias.
func (w WireNode) KindName() string {
	if w.Kind != "" {
		return w.Kind
	}
	return w.Type
}

// Attrs merges Props and Attributes, Attributes taking precedence.
func (w WireNode) Attrs() map[string]any {
	if len(w.Props) == 0 {
		return w.Attributes
	}
	out := make(map[string]any, len(w.Props)+len(w.Attributes))
	for k, v := range w.Props {
		out[k] = v
	}
	for k, v := range w.Attributes {
		out[k] = v
	}
	return out
}
