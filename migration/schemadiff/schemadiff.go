// Package schemadiff compares the declared entity registry against live
// database structure and reports what is missing.
//
// The comparison is name-based and case-insensitive, and strictly additive:
// a column that exists in the database under any casing is considered
// present, whatever its live type, and columns that exist only in the
// database are ignored. Running the comparison against a database that
// already matches the registry yields an empty diff, which is what makes
// repeated migration runs no-ops.
package schemadiff

import (
	"sort"
	"strings"

	"github.com/talentbridge/crmsync/core/schema"
	dbtypes "github.com/talentbridge/crmsync/dbschema/types"
	difftypes "github.com/talentbridge/crmsync/migration/schemadiff/types"
)

// Compare computes the additive diff between the declared entities and the
// live tables. Live tables not described by any entity are ignored.
func Compare(entities []schema.Entity, live []dbtypes.DBTable) *difftypes.SchemaDiff {
	diff := &difftypes.SchemaDiff{}

	liveTables := make(map[string]dbtypes.DBTable, len(live))
	for _, t := range live {
		liveTables[strings.ToLower(t.Name)] = t
	}

	for _, entity := range entities {
		dbTable, exists := liveTables[strings.ToLower(entity.Table)]
		if !exists {
			diff.TablesAdded = append(diff.TablesAdded, entity.Table)
			continue
		}
		tableDiff := CompareTable(entity, dbTable)
		if len(tableDiff.ColumnsAdded) > 0 {
			diff.TablesModified = append(diff.TablesModified, tableDiff)
		}
	}

	// Sort for consistent output across runs.
	sort.Strings(diff.TablesAdded)
	sort.Slice(diff.TablesModified, func(i, j int) bool {
		return diff.TablesModified[i].TableName < diff.TablesModified[j].TableName
	})
	return diff
}

// CompareTable computes the missing columns of a single existing table.
// Missing columns are reported in declaration order so generated DDL is
// deterministic.
func CompareTable(entity schema.Entity, dbTable dbtypes.DBTable) difftypes.TableDiff {
	liveColumns := make(map[string]bool, len(dbTable.Columns))
	for _, c := range dbTable.Columns {
		liveColumns[strings.ToLower(c.Name)] = true
	}

	tableDiff := difftypes.TableDiff{TableName: entity.Table}
	for _, f := range entity.Fields {
		if !liveColumns[strings.ToLower(f.Column)] {
			tableDiff.ColumnsAdded = append(tableDiff.ColumnsAdded, f.Column)
		}
	}
	return tableDiff
}
