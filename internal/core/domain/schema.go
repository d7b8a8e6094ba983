package domain

import "strings"

// FieldSchema lists the fields of an entity that update paths may change.
// Everything else is immutable through a patch.
type FieldSchema struct {
	entity  string
	mutable map[string]struct{}
}

func newFieldSchema(entity string, fields ...string) FieldSchema {
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return FieldSchema{entity: entity, mutable: m}
}

var (
	UserSchema = newFieldSchema("user",
		"email", "password", "username", "enrollment", "cuil", "businessName")

	SupplySchema = newFieldSchema("supply",
		"name", "activePrinciple", "pharmaceutical_form", "power", "unity",
		"firstPresentation", "secondPresentation", "description", "observation")
)

// Entity names the schema's entity.
func (s FieldSchema) Entity() string { return s.entity }

// IsMutable reports whether field may be changed by a patch.
func (s FieldSchema) IsMutable(field string) bool {
	_, ok := s.mutable[field]
	return ok
}

// Patch keeps the mutable, non-empty string values of in. Unknown fields,
// non-string values and blank strings are dropped, never nulled out.
func (s FieldSchema) Patch(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if !s.IsMutable(k) {
			continue
		}
		str, ok := v.(string)
		if !ok || strings.TrimSpace(str) == "" {
			continue
		}
		out[k] = str
	}
	return out
}
