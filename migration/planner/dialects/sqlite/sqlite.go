// Package sqlite generates SQLite DDL from entity definitions. SQLite is the
// development and test dialect; the DDL subset used here (CREATE TABLE,
// ALTER TABLE ADD COLUMN, CREATE INDEX) matches the server dialects.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/talentbridge/crmsync/core/schema"
)

// DialectName is the SQLite dialect identifier.
const DialectName = "sqlite"

// Planner generates SQLite-specific DDL. It is stateless and safe for
// concurrent use.
type Planner struct{}

func New() *Planner {
	return &Planner{}
}

// Name returns the dialect identifier.
func (p *Planner) Name() string {
	return DialectName
}

// CreateTable returns CREATE TABLE plus CREATE INDEX statements for the
// entity.
func (p *Planner) CreateTable(entity schema.Entity) []string {
	cols := make([]string, 0, len(entity.Fields))
	for _, f := range entity.Fields {
		def := fmt.Sprintf("%s %s", f.Column, columnType(f.Type))
		if f.PrimaryKey {
			def += " PRIMARY KEY"
		}
		cols = append(cols, def)
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", entity.Table, strings.Join(cols, ",\n  ")),
	}
	for _, ref := range entity.ReferenceFields() {
		statements = append(statements, fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)",
			entity.Table, ref.Column, entity.Table, ref.Column))
	}
	return statements
}

// AddColumn returns the ALTER TABLE statement appending the named declared
// column. Added columns are nullable so existing rows stay valid.
func (p *Planner) AddColumn(entity schema.Entity, column string) (string, error) {
	f, ok := entity.FieldByColumn(column)
	if !ok {
		return "", fmt.Errorf("entity %q does not declare column %q", entity.Name, column)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", entity.Table, f.Column, columnType(f.Type)), nil
}

func columnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInteger, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
