// Package schema defines the JSON schemas the model's output is constrained
// to, and validates and normalizes what comes back.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wayfarer-app/wayfarer/internal/errors"
)

// ID identifies one of the output shapes.
type ID string

const (
	Itinerary    ID = "itinerary"
	PackingList  ID = "packing_list"
	Briefing     ID = "briefing"
	Note         ID = "structured_note"
	JournalEntry ID = "journal_entry"
	TripSummary  ID = "trip_summary"
)

// Property is one JSON schema node.
type Property map[string]any

// String is a required-content string.
func String(description string) Property {
	return Property{"type": "string", "description": description, "minLength": 1}
}

// Text is a string that may be empty.
func Text(description string) Property {
	return Property{"type": "string", "description": description}
}

// Enum is a string restricted to values.
func Enum(description string, values ...string) Property {
	return Property{"type": "string", "description": description, "enum": values}
}

// Integer is an integer the normalizer clamps into [min, max].
func Integer(description string, min, max int) Property {
	return Property{"type": "integer", "description": description, "minimum": min, "maximum": max}
}

// NonNegative is a number below zero that is rejected, not clamped.
func NonNegative(description string) Property {
	return Property{"type": "number", "description": description, "minimum": 0}
}

// Boolean is a boolean flag.
func Boolean(description string) Property {
	return Property{"type": "boolean", "description": description}
}

// Array holds min to max items. Fewer than min fails validation; more than
// max are truncated.
func Array(description string, items Property, min, max int) Property {
	p := Property{"type": "array", "description": description, "items": map[string]any(items), "minItems": min}
	if max > 0 {
		p["maxItems"] = max
	}
	return p
}

// Object builds a nested object from a builder.
func Object(description string, b *Builder) Property {
	p := b.node()
	p["description"] = description
	return p
}

// ============================================================
// Builder
// ============================================================

// Builder provides a fluent interface for building object schemas.
type Builder struct {
	properties map[string]any
	required   []string
	order      []string
}

// NewObject creates an empty object builder.
func NewObject() *Builder {
	return &Builder{properties: make(map[string]any)}
}

// Field adds a required property.
func (b *Builder) Field(name string, p Property) *Builder {
	if b.add(name, p) {
		b.required = append(b.required, name)
	}
	return b
}

// Optional adds a property the model may omit.
func (b *Builder) Optional(name string, p Property) *Builder {
	b.add(name, p)
	return b
}

// add stores p and reports whether name is new.
func (b *Builder) add(name string, p Property) bool {
	_, dup := b.properties[name]
	if !dup {
		b.order = append(b.order, name)
	}
	b.properties[name] = map[string]any(p)
	return !dup
}

func (b *Builder) node() Property {
	return Property{
		"type":                 "object",
		"properties":           b.properties,
		"required":             append([]string(nil), b.required...),
		"additionalProperties": false,
	}
}

// Build returns the schema for id.
func (b *Builder) Build(id ID, description string) *Schema {
	root := b.node()
	root["description"] = description
	return &Schema{ID: id, Description: description, root: map[string]any(root), fields: append([]string(nil), b.order...)}
}

// ============================================================
// Schema
// ============================================================

// Schema is one output shape.
type Schema struct {
	ID          ID
	Description string

	root   map[string]any
	fields []string

	validator *gojsonschema.Schema
}

// Fields returns the top-level property names in declaration order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Generation returns the full schema sent to the model.
func (s *Schema) Generation() map[string]any {
	return deepCopy(s.root, false).(map[string]any)
}

// Validation returns the schema output is checked against: the generation
// schema without the bounds the normalizer enforces itself.
func (s *Schema) Validation() map[string]any {
	return deepCopy(s.root, true).(map[string]any)
}

// Compile prepares the validator. Registry.Register calls it.
func (s *Schema) Compile() error {
	v, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.Validation()))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", s.ID, err)
	}
	s.validator = v
	return nil
}

// Decode parses raw model output, validates it and returns the normalized
// JSON document. Every failure is OutputValidationFailed.
func (s *Schema) Decode(raw string) ([]byte, error) {
	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil, &errors.Error{Kind: errors.KindOutputValidationFailed, Detail: "malformed output", Inner: err}
	}

	if err := s.Validate(doc); err != nil {
		return nil, err
	}

	out, err := json.Marshal(normalize(doc, s.root))
	if err != nil {
		return nil, &errors.Error{Kind: errors.KindOutputValidationFailed, Detail: "malformed output", Inner: err}
	}
	return out, nil
}

// Validate checks a decoded document against the validation schema.
func (s *Schema) Validate(doc any) error {
	if s.validator == nil {
		if err := s.Compile(); err != nil {
			return errors.Validation(err.Error())
		}
	}

	result, err := s.validator.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &errors.Error{Kind: errors.KindOutputValidationFailed, Detail: "malformed output", Inner: err}
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	sort.Strings(msgs)
	return errors.Validationf("%s: %s", s.ID, strings.Join(msgs, "; "))
}

// ============================================================
// Normalization
// ============================================================

// normalize truncates arrays to maxItems and clamps integers into their
// declared range, following node.
func normalize(doc any, node map[string]any) any {
	switch node["type"] {
	case "object":
		obj, ok := doc.(map[string]any)
		if !ok {
			return doc
		}
		props, _ := node["properties"].(map[string]any)
		for name, v := range obj {
			if child, ok := props[name].(map[string]any); ok {
				obj[name] = normalize(v, child)
			}
		}
		return obj

	case "array":
		arr, ok := doc.([]any)
		if !ok {
			return doc
		}
		if max, ok := number(node["maxItems"]); ok && len(arr) > int(max) {
			arr = arr[:int(max)]
		}
		if items, ok := node["items"].(map[string]any); ok {
			for i := range arr {
				arr[i] = normalize(arr[i], items)
			}
		}
		return arr

	case "integer":
		v, ok := number(doc)
		if !ok {
			return doc
		}
		if min, ok := number(node["minimum"]); ok && v < min {
			v = min
		}
		if max, ok := number(node["maximum"]); ok && v > max {
			v = max
		}
		return v
	}
	return doc
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// deepCopy copies a schema tree. With relax set it drops maxItems and the
// bounds of integer nodes.
func deepCopy(v any, relax bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val, relax)
		}
		if relax {
			delete(out, "maxItems")
			if out["type"] == "integer" {
				delete(out, "minimum")
				delete(out, "maximum")
			}
		}
		return out
	case Property:
		return deepCopy(map[string]any(t), relax)
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val, relax)
		}
		return out
	default:
		return v
	}
}

// ============================================================
// Registry
// ============================================================

// Registry holds the output schemas by ID.
type Registry struct {
	schemas map[ID]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[ID]*Schema)}
}

// Register compiles and adds a schema.
func (r *Registry) Register(s *Schema) error {
	if err := s.Compile(); err != nil {
		return err
	}
	r.schemas[s.ID] = s
	return nil
}

// Get retrieves a schema by ID.
func (r *Registry) Get(id ID) (*Schema, bool) {
	s, ok := r.schemas[id]
	return s, ok
}

// MustGet retrieves a schema that is known to be registered.
func (r *Registry) MustGet(id ID) *Schema {
	s, ok := r.schemas[id]
	if !ok {
		panic(fmt.Sprintf("schema %q not registered", id))
	}
	return s
}

// IDs returns the registered IDs, sorted.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ToJSON returns the generation schemas as JSON for debugging.
func (r *Registry) ToJSON() ([]byte, error) {
	out := make(map[ID]map[string]any, len(r.schemas))
	for id, s := range r.schemas {
		out[id] = s.Generation()
	}
	return json.MarshalIndent(out, "", "  ")
}
