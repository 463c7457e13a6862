package types

import "context"

// DBTable represents a live database table as read from introspection.
type DBTable struct {
	Name    string     `json:"name"`
	Columns []DBColumn `json:"columns"`
}

// DBColumn represents a live database column.
type DBColumn struct {
	Name            string `json:"name"`
	DataType        string `json:"data_type"`
	IsNullable      bool   `json:"is_nullable"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	OrdinalPosition int    `json:"ordinal_position"`
}

// ColumnNames returns the column names in ordinal order.
func (t *DBTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SchemaReader reads live table structure from a database. Implementations
// exist per dialect: information_schema on postgres and mysql, PRAGMA on
// sqlite.
type SchemaReader interface {
	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, table string) (bool, error)
	// ReadTable returns the live structure of the named table. The table must
	// exist; check TableExists first.
	ReadTable(ctx context.Context, table string) (*DBTable, error)
}
