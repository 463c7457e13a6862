// Package mysql reads live table structure from MySQL via information_schema.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/talentbridge/crmsync/dbschema/types"
)

// Reader reads schema information from a MySQL database. Tables are resolved
// against the connection's current database (DATABASE()).
type Reader struct {
	db *sql.DB
}

// NewReader creates a MySQL schema reader.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// TableExists reports whether the named table exists in the current database.
func (r *Reader) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// ReadTable reads the column structure of the named table.
func (r *Reader) ReadTable(ctx context.Context, table string) (*types.DBTable, error) {
	const query = `
		SELECT column_name, data_type, is_nullable, ordinal_position, column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	result := &types.DBTable{Name: table}
	for rows.Next() {
		var col types.DBColumn
		var nullable, key string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.OrdinalPosition, &key); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.IsNullable = nullable == "YES"
		col.IsPrimaryKey = key == "PRI"
		result.Columns = append(result.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return result, nil
}
