// Package sqlite reads live table structure from SQLite via PRAGMA
// table_info. Used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/talentbridge/crmsync/dbschema/types"
)

// Reader reads schema information from a SQLite database.
type Reader struct {
	db *sql.DB
}

// NewReader creates a SQLite schema reader.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// TableExists reports whether the named table exists.
func (r *Reader) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// ReadTable reads the column structure of the named table.
func (r *Reader) ReadTable(ctx context.Context, table string) (*types.DBTable, error) {
	// PRAGMA table_info does not support placeholders; quote the identifier.
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	result := &types.DBTable{Name: table}
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		result.Columns = append(result.Columns, types.DBColumn{
			Name:            name,
			DataType:        dataType,
			IsNullable:      notNull == 0,
			IsPrimaryKey:    pk > 0,
			OrdinalPosition: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return result, nil
}
