package postgres_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/migration/planner/dialects/postgres"
)

var contactEntity = schema.Entity{
	Name:      "contact",
	Table:     "contacts",
	APIModule: "Contacts",
	Fields: []schema.Field{
		{Column: "id", APIName: "id", Type: schema.TypeText, PrimaryKey: true},
		{Column: "email", APIName: "Email", Type: schema.TypeText},
		{Column: "account_id", APIName: "Account_Name", Type: schema.TypeText, Reference: "accounts"},
		{Column: "active", APIName: "Active", Type: schema.TypeBoolean},
		{Column: "notes", APIName: "Notes", Type: schema.TypeLongText},
		{Column: "score", APIName: "Score", Type: schema.TypeInteger},
		{Column: "updated_time", APIName: "Modified_Time", Type: schema.TypeTimestamp},
	},
}

func TestPlanner_CreateTable(t *testing.T) {
	c := qt.New(t)

	statements := postgres.New().CreateTable(contactEntity)

	c.Assert(statements, qt.HasLen, 2)

	create := statements[0]
	c.Assert(strings.HasPrefix(create, "CREATE TABLE contacts ("), qt.IsTrue)
	c.Assert(create, qt.Contains, "id TEXT PRIMARY KEY")
	c.Assert(create, qt.Contains, "email TEXT")
	c.Assert(create, qt.Contains, "active BOOLEAN")
	c.Assert(create, qt.Contains, "notes TEXT")
	c.Assert(create, qt.Contains, "score BIGINT")
	c.Assert(create, qt.Contains, "updated_time TIMESTAMPTZ")
	// Reference columns get an index, never a foreign-key constraint.
	c.Assert(create, qt.Not(qt.Contains), "REFERENCES")
	c.Assert(statements[1], qt.Equals, "CREATE INDEX idx_contacts_account_id ON contacts (account_id)")
}

func TestPlanner_AddColumn(t *testing.T) {
	tests := []struct {
		name     string
		column   string
		expected string
	}{
		{
			name:     "text column",
			column:   "email",
			expected: "ALTER TABLE contacts ADD COLUMN email TEXT",
		},
		{
			name:     "integer column",
			column:   "score",
			expected: "ALTER TABLE contacts ADD COLUMN score BIGINT",
		},
		{
			name:     "timestamp column",
			column:   "updated_time",
			expected: "ALTER TABLE contacts ADD COLUMN updated_time TIMESTAMPTZ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			stmt, err := postgres.New().AddColumn(contactEntity, tt.column)

			c.Assert(err, qt.IsNil)
			c.Assert(stmt, qt.Equals, tt.expected)
			// Added columns are nullable so existing rows stay valid.
			c.Assert(stmt, qt.Not(qt.Contains), "NOT NULL")
		})
	}
}

func TestPlanner_AddColumn_Undeclared(t *testing.T) {
	c := qt.New(t)

	_, err := postgres.New().AddColumn(contactEntity, "no_such_column")

	c.Assert(err, qt.IsNotNil)
}
