package types

// SchemaDiff represents the differences between the declared entity registry
// and a live database schema.
//
// Reconciliation is strictly additive: the diff only ever reports tables to
// create and columns to append. Columns present in the database but absent
// from the registry, renamed columns, and declared-type changes to existing
// columns are deliberately not represented and therefore never acted on.
type SchemaDiff struct {
	// TablesAdded contains declared tables missing from the database.
	TablesAdded []string `json:"tables_added"`

	// TablesModified contains tables present in both that are missing one or
	// more declared columns.
	TablesModified []TableDiff `json:"tables_modified"`
}

// TableDiff describes the missing columns of one existing table.
type TableDiff struct {
	TableName string `json:"table_name"`

	// ColumnsAdded lists declared column names absent from the live table,
	// in declaration order.
	ColumnsAdded []string `json:"columns_added"`
}

// HasChanges reports whether the diff contains any work.
func (d *SchemaDiff) HasChanges() bool {
	return len(d.TablesAdded) > 0 || len(d.TablesModified) > 0
}
