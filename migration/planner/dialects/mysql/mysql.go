// Package mysql generates MySQL DDL from entity definitions.
package mysql

import (
	"fmt"
	"strings"

	"github.com/talentbridge/crmsync/core/schema"
)

// DialectName is the MySQL dialect identifier.
const DialectName = "mysql"

// Planner generates MySQL-specific DDL. It is stateless and safe for
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
// entity. Primary-key and reference columns hold CRM record ids and are
// rendered as VARCHAR(64): MySQL cannot key or index a TEXT column without a
// prefix length.
func (p *Planner) CreateTable(entity schema.Entity) []string {
	cols := make([]string, 0, len(entity.Fields))
	for _, f := range entity.Fields {
		def := fmt.Sprintf("%s %s", f.Column, p.fieldType(f))
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
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", entity.Table, f.Column, p.fieldType(f)), nil
}

func (p *Planner) fieldType(f schema.Field) string {
	if f.PrimaryKey || f.Reference != "" {
		if f.Type == schema.TypeText || f.Type == schema.TypeLongText {
			return "VARCHAR(64)"
		}
	}
	switch f.Type {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeBoolean:
		return "TINYINT(1)"
	case schema.TypeTimestamp:
		return "DATETIME"
	case schema.TypeLongText:
		return "LONGTEXT"
	default:
		return "TEXT"
	}
}
