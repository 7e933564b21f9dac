// Package schema describes the expected shape of node attributes.
//
// A Schema maps attribute keys to types. The attribute bag is open, so keys a
// schema does not mention are accepted; keys it does mention are type checked,
// and are required unless wrapped in Optional.
//
//	s := schema.Schema{
//	    "label":   schema.String(),
//	    "options": schema.Optional(schema.Slice(schema.String())),
//	    "style":   schema.Optional(schema.Map(schema.Any())),
//	}
//
//	if err := schema.Validate(s, node.Attributes); err != nil {
//	    for _, e := range schema.ValidationErrors(err) { ... }
//	}
//
// ForKind returns the built-in schema for each node kind. Schemas also
// serialize to and from their type strings ("string", "[string]", "{any}",
// "int?", "enum(h1,h2)") so they can be published to clients.
package schema
