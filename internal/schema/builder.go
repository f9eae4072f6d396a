package schema

import (
	"fmt"
	"strings"
	"time"
)

// RawEntry is one key/value pair of a raw schema definition. The value is
// either a type string, a relation string, or an object-shaped spec
// (map[string]any with a "type" key and optional boolean flags).
type RawEntry struct {
	Key   string
	Value any
}

// RawDefinition is the duck-typed input shape of a schema document with its
// key order preserved.
type RawDefinition struct {
	entries []RawEntry
	index   map[string]int
}

func NewRawDefinition() *RawDefinition {
	return &RawDefinition{index: make(map[string]int)}
}

// Set appends a key/value pair, replacing the value in place when the key
// was already present. It returns the definition for chaining.
func (d *RawDefinition) Set(key string, value any) *RawDefinition {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return d
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, RawEntry{Key: key, Value: value})
	return d
}

func (d *RawDefinition) Get(key string) (any, bool) {
	if i, ok := d.index[key]; ok {
		return d.entries[i].Value, true
	}
	return nil, false
}

// Entries returns the pairs in insertion order.
func (d *RawDefinition) Entries() []RawEntry {
	out := make([]RawEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *RawDefinition) Len() int {
	return len(d.entries)
}

// Schema is a fully resolved entity definition. It is built once by Parse
// and treated as read-only afterwards: diffing and migration building never
// mutate a schema in place.
type Schema struct {
	Name       string
	Version    int
	Fields     *FieldMap
	Directives *Directives
	Relations  *RelationMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Parse resolves a raw definition into a schema. The name comes from the
// $type directive, defaulting to "Unknown". Every non-directive key becomes
// a field; relation-shaped values are attached to their field and recorded
// in the relations table under the same key.
func Parse(raw *RawDefinition) (*Schema, error) {
	s := &Schema{
		Name:      "Unknown",
		Version:   1,
		Fields:    NewFieldMap(),
		Relations: NewRelationMap(),
	}

	directiveValues := make(map[string]any)
	for _, entry := range raw.Entries() {
		if strings.HasPrefix(entry.Key, "$") {
			if entry.Key == "$type" {
				if name, ok := entry.Value.(string); ok && name != "" {
					s.Name = name
				}
			}
			directiveValues[entry.Key] = entry.Value
			continue
		}

		field, rel, err := resolveFieldValue(entry.Key, entry.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", entry.Key, err)
		}
		s.Fields.Set(field)
		if rel != nil {
			s.Relations.Set(entry.Key, rel)
		}
	}

	s.Directives = ParseDirectives(directiveValues)
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

func resolveFieldValue(name string, value any) (*Field, *Relation, error) {
	switch v := value.(type) {
	case string:
		return resolveFieldString(name, v)
	case map[string]any:
		return resolveFieldObject(name, v)
	default:
		// Anything we cannot interpret is stored as-is in a json column.
		return &Field{Name: name, Type: "json"}, nil, nil
	}
}

func resolveFieldString(name, spec string) (*Field, *Relation, error) {
	if IsRelationString(spec) {
		rel, err := ParseRelation(spec)
		if err != nil {
			return nil, nil, err
		}
		field := &Field{Name: name, Type: rel.TargetType, Relation: rel}
		return field, rel, nil
	}

	field, err := ParseField(spec)
	if err != nil {
		return nil, nil, err
	}
	field.Name = name
	return field, nil, nil
}

func resolveFieldObject(name string, spec map[string]any) (*Field, *Relation, error) {
	typeSpec, ok := spec["type"].(string)
	if !ok || strings.TrimSpace(typeSpec) == "" {
		return &Field{Name: name, Type: "json"}, nil, nil
	}

	field, rel, err := resolveFieldString(name, typeSpec)
	if err != nil {
		return nil, nil, err
	}

	if optional, ok := spec["optional"].(bool); ok && optional {
		field.IsOptional = true
	}
	if unique, ok := spec["unique"].(bool); ok && unique {
		field.IsUnique = true
	}
	if required, ok := spec["required"].(bool); ok && required {
		field.Modifier = "!"
		field.IsUnique = true
	}

	return field, rel, nil
}
