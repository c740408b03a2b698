package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldMapping associates semantic fields with statement columns. Every field
// except description holds a single ColumnRef; description holds an ordered
// list whose columns are concatenated.
//
// The zero value is an empty mapping ready to use.
type FieldMapping struct {
	single         map[FieldName]ColumnRef
	description    []ColumnRef
	hasDescription bool
}

// Set stores ref for a single-column field.
func (m *FieldMapping) Set(field FieldName, ref ColumnRef) error {
	if !field.IsMappable() {
		return fmt.Errorf("unknown field %q", field)
	}
	if field.IsMultiColumn() {
		return fmt.Errorf("field %q takes a list of columns", field)
	}
	if m.single == nil {
		m.single = make(map[FieldName]ColumnRef)
	}
	m.single[field] = ref
	return nil
}

// AppendDescription adds a column to the end of the description list.
func (m *FieldMapping) AppendDescription(ref ColumnRef) {
	m.description = append(m.description, ref)
	m.hasDescription = true
}

// SetDescription replaces the description list.
func (m *FieldMapping) SetDescription(refs []ColumnRef) {
	m.description = append([]ColumnRef(nil), refs...)
	m.hasDescription = true
}

// Single returns the reference stored for a single-column field.
func (m FieldMapping) Single(field FieldName) (ColumnRef, bool) {
	ref, ok := m.single[field]
	return ref, ok
}

// Description returns a copy of the description columns.
func (m FieldMapping) Description() []ColumnRef {
	return append([]ColumnRef(nil), m.description...)
}

// Has reports whether field is present in the mapping, even with an empty value.
func (m FieldMapping) Has(field FieldName) bool {
	if field.IsMultiColumn() {
		return m.hasDescription
	}
	_, ok := m.single[field]
	return ok
}

// Refs returns the references for field as a list, whatever its arity.
func (m FieldMapping) Refs(field FieldName) []ColumnRef {
	if field.IsMultiColumn() {
		return m.Description()
	}
	if ref, ok := m.single[field]; ok {
		return []ColumnRef{ref}
	}
	return nil
}

// Fields returns the present fields in canonical order.
func (m FieldMapping) Fields() []FieldName {
	var fields []FieldName
	for _, f := range MappableFields {
		if m.Has(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// IsEmpty reports whether no field is mapped.
func (m FieldMapping) IsEmpty() bool {
	return len(m.single) == 0 && !m.hasDescription
}

// Equal reports whether both mappings hold the same references.
func (m FieldMapping) Equal(other FieldMapping) bool {
	a, _ := json.Marshal(m)
	b, _ := json.Marshal(other)
	return string(a) == string(b)
}

// toMap flattens the mapping for encoding. Encoders sort map keys, which keeps
// the serialized form byte-stable.
func (m FieldMapping) toMap() map[string]interface{} {
	out := make(map[string]interface{}, len(m.single)+1)
	for f, ref := range m.single {
		out[string(f)] = string(ref)
	}
	if m.hasDescription {
		desc := make([]string, len(m.description))
		for i, ref := range m.description {
			desc[i] = string(ref)
		}
		out[string(FieldDescription)] = desc
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toMap())
}

// UnmarshalJSON implements json.Unmarshaler. Only string values are accepted,
// plus a string list for description. A bare string description is read as a
// one-element list.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("column mappings must be an object: %w", err)
	}

	var out FieldMapping
	for key, value := range raw {
		field := FieldName(key)
		if !field.IsMappable() {
			return fmt.Errorf("unknown field %q in column mappings", key)
		}

		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			if field.IsMultiColumn() {
				out.AppendDescription(ColumnRef(s))
			} else if err := out.Set(field, ColumnRef(s)); err != nil {
				return err
			}
			continue
		}

		if !field.IsMultiColumn() {
			return fmt.Errorf("field %q must be a string column reference, got %s", key, string(value))
		}
		var list []string
		if err := json.Unmarshal(value, &list); err != nil {
			return fmt.Errorf("field %q must be a list of string column references, got %s", key, string(value))
		}
		refs := make([]ColumnRef, len(list))
		for i, s := range list {
			refs[i] = ColumnRef(s)
		}
		out.SetDescription(refs)
	}

	*m = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m FieldMapping) MarshalYAML() (interface{}, error) {
	return m.toMap(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Scalar values are taken verbatim
// so that corrupted entries survive a round trip for inspection.
func (m *FieldMapping) UnmarshalYAML(value *yaml.Node) error {
	var out FieldMapping
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*m = out
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: column mappings must be a mapping", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		field := FieldName(key.Value)
		if !field.IsMappable() {
			return fmt.Errorf("line %d: unknown field %q in column mappings", key.Line, key.Value)
		}

		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				continue
			}
			if field.IsMultiColumn() {
				out.AppendDescription(ColumnRef(val.Value))
			} else if err := out.Set(field, ColumnRef(val.Value)); err != nil {
				return err
			}
		case yaml.SequenceNode:
			if !field.IsMultiColumn() {
				return fmt.Errorf("line %d: field %q must be a single column reference", val.Line, key.Value)
			}
			refs := make([]ColumnRef, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: description entries must be scalars", item.Line)
				}
				refs = append(refs, ColumnRef(item.Value))
			}
			out.SetDescription(refs)
		default:
			return fmt.Errorf("line %d: unsupported value for field %q", val.Line, key.Value)
		}
	}

	*m = out
	return nil
}
