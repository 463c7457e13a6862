// Package schema holds the declarative entity definitions that drive both
// schema migration and record loading.
//
// Each synced entity is described by an Entity value: an ordered list of typed
// field descriptors plus the CRM module the records come from. The same
// descriptor is consumed by the migration planner (to create tables and add
// missing columns) and by the transform/load step (to map API field names to
// columns and coerce values), so the registry is the single source of truth
// for what a table looks like.
package schema

import "fmt"

// FieldType is the semantic column type of a declared field. Dialect-specific
// SQL types are derived from it by the migration planner.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeInteger   FieldType = "integer"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
	// TypeLongText is used for large values and structured data serialized as
	// text (addresses, JSON payloads).
	TypeLongText FieldType = "longtext"
)

// Valid reports whether t is one of the declared semantic types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeInteger, TypeBoolean, TypeTimestamp, TypeLongText:
		return true
	}
	return false
}

// Field describes one column of an entity table.
type Field struct {
	// Column is the database column name (lower_snake).
	Column string
	// APIName is the CRM field name this column is populated from. Empty for
	// columns maintained locally (bookkeeping tables).
	APIName string
	// Type is the semantic column type.
	Type FieldType
	// PrimaryKey marks the external-identifier column used as the upsert key.
	PrimaryKey bool
	// Reference names the referenced table for foreign-key columns. Reference
	// columns are created as plain indexed columns, not enforced constraints,
	// so out-of-order or missing parent rows never break a load.
	Reference string
}

// Entity describes one synced table.
type Entity struct {
	// Name is the registry key, also used in logs and reports.
	Name string
	// Table is the database table name.
	Table string
	// APIModule is the CRM module path segment the records are fetched from.
	// Empty for tables this system maintains itself.
	APIModule string
	// Fields is the ordered column set. Exactly one field must be the primary
	// key, and migration treats this list as a superset of the live table.
	Fields []Field
}

// PrimaryKey returns the external-identifier field.
func (e Entity) PrimaryKey() Field {
	for _, f := range e.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	// Validate guarantees one exists; reaching this is a programming error.
	panic(fmt.Sprintf("schema: entity %q has no primary key", e.Name))
}

// APIFieldNames returns the CRM field names to request for this entity, in
// declaration order, skipping locally maintained columns.
func (e Entity) APIFieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.APIName != "" {
			names = append(names, f.APIName)
		}
	}
	return names
}

// ReferenceFields returns the fields that reference another table.
func (e Entity) ReferenceFields() []Field {
	var refs []Field
	for _, f := range e.Fields {
		if f.Reference != "" {
			refs = append(refs, f)
		}
	}
	return refs
}

// FieldByColumn looks up a field by column name.
func (e Entity) FieldByColumn(column string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the entity definition for internal consistency.
func (e Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity has no name")
	}
	if e.Table == "" {
		return fmt.Errorf("entity %q has no table name", e.Name)
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("entity %q has no fields", e.Name)
	}
	var pks int
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Column == "" {
			return fmt.Errorf("entity %q has a field with no column name", e.Name)
		}
		if seen[f.Column] {
			return fmt.Errorf("entity %q declares column %q twice", e.Name, f.Column)
		}
		seen[f.Column] = true
		if !f.Type.Valid() {
			return fmt.Errorf("entity %q column %q has unknown type %q", e.Name, f.Column, f.Type)
		}
		if f.PrimaryKey {
			pks++
		}
	}
	if pks != 1 {
		return fmt.Errorf("entity %q must declare exactly one primary key, got %d", e.Name, pks)
	}
	return nil
}
