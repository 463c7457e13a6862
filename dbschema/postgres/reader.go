// Package postgres reads live table structure from PostgreSQL via
// information_schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/talentbridge/crmsync/dbschema/types"
)

// Reader reads schema information from a PostgreSQL database.
type Reader struct {
	db     *sql.DB
	schema string
}

// NewReader creates a PostgreSQL schema reader. An empty schema defaults to
// "public".
func NewReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{db: db, schema: schema}
}

// TableExists reports whether the named table exists in the configured schema.
func (r *Reader) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, r.schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

// ReadTable reads the column structure of the named table.
func (r *Reader) ReadTable(ctx context.Context, table string) (*types.DBTable, error) {
	const query = `
		SELECT c.column_name, c.data_type, c.is_nullable, c.ordinal_position,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON kcu.constraint_name = tc.constraint_name
		            AND kcu.table_schema = tc.table_schema
		           WHERE tc.table_schema = c.table_schema
		             AND tc.table_name = c.table_name
		             AND tc.constraint_type = 'PRIMARY KEY'
		             AND kcu.column_name = c.column_name
		       ) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := r.db.QueryContext(ctx, query, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	result := &types.DBTable{Name: table}
	for rows.Next() {
		var col types.DBColumn
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.OrdinalPosition, &col.IsPrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.IsNullable = nullable == "YES"
		result.Columns = append(result.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return result, nil
}
