// Package codec converts documents to and from their persisted JSON or YAML form.
//
// Encoding is strict. Decoding is tolerant: persisted documents come from
// older builders, hand edits and imports, so malformed parts are dropped with
// a DecodeWarning instead of failing the whole document.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lattice/internal/dto"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format names a serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// MaxDepth bounds how deep decoded trees may nest; deeper subtrees are dropped.
const MaxDepth = 64

// ErrUnknownFormat is returned for a format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown format")

// DecodeWarning describes a part of the input that was dropped or repaired.
type DecodeWarning struct {
	Path   string
	Reason string
}

func (w *DecodeWarning) Error() string {
	if w.Path == "" {
		return w.Reason
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// ParseFormat normalizes a format name ("yml" is accepted for YAML).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode serializes doc.
func Encode(doc *domain.Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decoder holds the decoding options. The zero value is not usable; use NewDecoder.
type Decoder struct {
	newID func() domain.ID
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithIDGenerator overrides how missing node ids are filled.
func WithIDGenerator(fn func() domain.ID) DecoderOption {
	return func(d *Decoder) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// NewDecoder creates a tolerant decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{newID: func() domain.ID { return domain.ID(uuid.NewString()) }}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses data with the default decoder.
func Decode(data []byte, format Format) (*domain.Document, []DecodeWarning, error) {
	return NewDecoder().Decode(data, format)
}

// Decode parses data into a document. It accepts a document object whose
// top-level sequence is stored under "roots", "elements" or "fields", or a
// bare array of nodes. Nodes may spell kind as "type" and attributes as "props".
//
// Missing ids are generated. Entries that are not objects, have an unknown
// kind, repeat an id or nest too deeply are dropped along with their subtree.
// Input that does not parse at all yields an empty document. The only error
// is ErrUnknownFormat.
func (d *Decoder) Decode(data []byte, format Format) (*domain.Document, []DecodeWarning, error) {
	var raw any
	switch format {
	case FormatJSON:
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &raw); err != nil {
				return domain.NewDocument("", ""), []DecodeWarning{{Reason: fmt.Sprintf("unparsable json: %v", err)}}, nil
			}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return domain.NewDocument("", ""), []DecodeWarning{{Reason: fmt.Sprintf("unparsable yaml: %v", err)}}, nil
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	st := &state{dec: d, seen: make(map[domain.ID]bool)}
	doc := domain.NewDocument("", "")

	var (
		entries []any
		key     = "roots"
	)
	switch v := raw.(type) {
	case nil:
	case []any:
		entries = v
		key = ""
	case map[string]any:
		var wire dto.WireDocument
		if err := decodeLoose(v, &wire); err != nil {
			st.warn("", fmt.Sprintf("document header: %v", err))
		}
		doc.ID = wire.ID
		doc.Title = wire.Title
		doc.SelectedID = domain.ID(wire.SelectedID)
		doc.Sealed = wire.Sealed
		doc.UpdatedAt = parseTime(wire.UpdatedAt)
		entries, key = wire.Sequence()
		switch {
		case wire.Variant != "":
			doc.Variant = domain.Variant(wire.Variant)
		case key == "fields":
			doc.Variant = domain.VariantForm
		}
		if doc.Variant != domain.VariantPage && doc.Variant != domain.VariantForm {
			st.warn("variant", fmt.Sprintf("unknown variant %q, using page", doc.Variant))
			doc.Variant = domain.VariantPage
		}
	default:
		st.warn("", fmt.Sprintf("unexpected top-level %T", raw))
	}

	for i, item := range entries {
		if n, ok := st.node(item, join(key, i), 1); ok {
			doc.Roots = append(doc.Roots, n)
		}
	}

	if doc.SelectedID != "" && !st.seen[doc.SelectedID] {
		st.warn("selected_id", fmt.Sprintf("selected node %s does not exist", doc.SelectedID))
		doc.SelectedID = ""
	}
	return doc, st.warnings, nil
}

type state struct {
	dec      *Decoder
	seen     map[domain.ID]bool
	warnings []DecodeWarning
}

func (s *state) warn(path, reason string) {
	s.warnings = append(s.warnings, DecodeWarning{Path: path, Reason: reason})
}

// node decodes one entry and its children. Recursion is bounded by MaxDepth.
func (s *state) node(item any, path string, depth int) (domain.Node, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		s.warn(path, fmt.Sprintf("entry is %T, not an object", item))
		return domain.Node{}, false
	}
	if depth > MaxDepth {
		s.warn(path, fmt.Sprintf("nested deeper than %d levels", MaxDepth))
		return domain.Node{}, false
	}

	var wire dto.WireNode
	if err := decodeLoose(m, &wire); err != nil {
		s.warn(path, err.Error())
		return domain.Node{}, false
	}

	kind := domain.Kind(wire.KindName())
	if !kind.Valid() {
		s.warn(path, fmt.Sprintf("unknown kind %q", kind))
		return domain.Node{}, false
	}

	id := domain.ID(wire.ID)
	if id == "" {
		id = s.dec.newID()
		s.warn(path, fmt.Sprintf("missing id, assigned %s", id))
	}
	if s.seen[id] {
		s.warn(path, fmt.Sprintf("duplicate id %s", id))
		return domain.Node{}, false
	}
	s.seen[id] = true

	n := domain.Node{ID: id, Kind: kind}
	if attrs := wire.Attrs(); len(attrs) > 0 {
		n.Attributes = domain.Attributes(attrs)
	}
	for i, c := range wire.Children {
		if child, ok := s.node(c, join(path+".children", i), depth+1); ok {
			n.Children = append(n.Children, child)
		}
	}
	return n, true
}

func decodeLoose(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func join(key string, i int) string {
	if key == "" {
		return fmt.Sprintf("[%d]", i)
	}
	return fmt.Sprintf("%s[%d]", key, i)
}
