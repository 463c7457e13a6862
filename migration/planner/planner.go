// Package planner turns a schema diff into ordered SQL statements for a
// specific database dialect.
package planner

import (
	"fmt"

	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/migration/planner/dialects/mysql"
	"github.com/talentbridge/crmsync/migration/planner/dialects/postgres"
	"github.com/talentbridge/crmsync/migration/planner/dialects/sqlite"
	difftypes "github.com/talentbridge/crmsync/migration/schemadiff/types"
)

// DialectPlanner generates dialect-specific DDL for one entity.
type DialectPlanner interface {
	// Name returns the dialect identifier.
	Name() string
	// CreateTable returns the statements that create the entity's table with
	// exactly the declared columns, plus indexes on reference columns.
	CreateTable(entity schema.Entity) []string
	// AddColumn returns the statement appending one declared column to an
	// existing table. The new column is nullable.
	AddColumn(entity schema.Entity, column string) (string, error)
}

// New returns the planner for the given dialect.
func New(dialect string) (DialectPlanner, error) {
	switch dialect {
	case postgres.DialectName:
		return postgres.New(), nil
	case mysql.DialectName:
		return mysql.New(), nil
	case sqlite.DialectName:
		return sqlite.New(), nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

// GenerateSQL converts a diff for a single entity into ordered statements:
// table creation first, then column additions in declaration order. An empty
// diff yields no statements.
func GenerateSQL(p DialectPlanner, entity schema.Entity, diff *difftypes.SchemaDiff) ([]string, error) {
	var statements []string

	for _, table := range diff.TablesAdded {
		if table != entity.Table {
			continue
		}
		statements = append(statements, p.CreateTable(entity)...)
	}

	for _, tableDiff := range diff.TablesModified {
		if tableDiff.TableName != entity.Table {
			continue
		}
		for _, column := range tableDiff.ColumnsAdded {
			stmt, err := p.AddColumn(entity, column)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		}
	}

	return statements, nil
}
