package schemadiff_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/schema"
	dbtypes "github.com/talentbridge/crmsync/dbschema/types"
	"github.com/talentbridge/crmsync/migration/schemadiff"
)

var testEntity = schema.Entity{
	Name:      "account",
	Table:     "accounts",
	APIModule: "Accounts",
	Fields: []schema.Field{
		{Column: "id", APIName: "id", Type: schema.TypeText, PrimaryKey: true},
		{Column: "name", APIName: "Account_Name", Type: schema.TypeText},
		{Column: "annual_revenue", APIName: "Annual_Revenue", Type: schema.TypeInteger},
	},
}

func TestCompare_MissingTable(t *testing.T) {
	c := qt.New(t)

	diff := schemadiff.Compare([]schema.Entity{testEntity}, nil)

	c.Assert(diff.HasChanges(), qt.IsTrue)
	c.Assert(diff.TablesAdded, qt.DeepEquals, []string{"accounts"})
	c.Assert(diff.TablesModified, qt.HasLen, 0)
}

func TestCompare_MissingColumns(t *testing.T) {
	c := qt.New(t)

	live := []dbtypes.DBTable{
		{
			Name: "accounts",
			Columns: []dbtypes.DBColumn{
				{Name: "id", DataType: "text", IsPrimaryKey: true},
			},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{testEntity}, live)

	c.Assert(diff.TablesAdded, qt.HasLen, 0)
	c.Assert(diff.TablesModified, qt.HasLen, 1)
	c.Assert(diff.TablesModified[0].TableName, qt.Equals, "accounts")
	// Missing columns come back in declaration order.
	c.Assert(diff.TablesModified[0].ColumnsAdded, qt.DeepEquals, []string{"name", "annual_revenue"})
}

func TestCompare_UpToDate(t *testing.T) {
	c := qt.New(t)

	live := []dbtypes.DBTable{
		{
			Name: "accounts",
			Columns: []dbtypes.DBColumn{
				{Name: "id", DataType: "text", IsPrimaryKey: true},
				{Name: "name", DataType: "text"},
				{Name: "annual_revenue", DataType: "bigint"},
			},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{testEntity}, live)

	c.Assert(diff.HasChanges(), qt.IsFalse)
}

func TestCompare_CaseInsensitiveNames(t *testing.T) {
	c := qt.New(t)

	// MySQL reports identifiers with whatever casing the server is configured
	// for; the comparison must not see that as a missing column.
	live := []dbtypes.DBTable{
		{
			Name: "ACCOUNTS",
			Columns: []dbtypes.DBColumn{
				{Name: "ID", DataType: "text", IsPrimaryKey: true},
				{Name: "Name", DataType: "text"},
				{Name: "Annual_Revenue", DataType: "bigint"},
			},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{testEntity}, live)

	c.Assert(diff.HasChanges(), qt.IsFalse)
}

func TestCompare_ExtraLiveColumnsIgnored(t *testing.T) {
	c := qt.New(t)

	// Columns that exist only in the database are left alone: the comparison
	// never proposes drops.
	live := []dbtypes.DBTable{
		{
			Name: "accounts",
			Columns: []dbtypes.DBColumn{
				{Name: "id", DataType: "text", IsPrimaryKey: true},
				{Name: "name", DataType: "text"},
				{Name: "annual_revenue", DataType: "bigint"},
				{Name: "legacy_notes", DataType: "text"},
			},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{testEntity}, live)

	c.Assert(diff.HasChanges(), qt.IsFalse)
}

func TestCompare_LiveTypeChangeIgnored(t *testing.T) {
	c := qt.New(t)

	// A live column whose type differs from the declaration is considered
	// present. Reconciliation never retypes.
	live := []dbtypes.DBTable{
		{
			Name: "accounts",
			Columns: []dbtypes.DBColumn{
				{Name: "id", DataType: "text", IsPrimaryKey: true},
				{Name: "name", DataType: "text"},
				{Name: "annual_revenue", DataType: "varchar"},
			},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{testEntity}, live)

	c.Assert(diff.HasChanges(), qt.IsFalse)
}

func TestCompare_MultipleEntitiesSorted(t *testing.T) {
	c := qt.New(t)

	other := schema.Entity{
		Name:      "contact",
		Table:     "contacts",
		APIModule: "Contacts",
		Fields: []schema.Field{
			{Column: "id", APIName: "id", Type: schema.TypeText, PrimaryKey: true},
		},
	}

	diff := schemadiff.Compare([]schema.Entity{other, testEntity}, nil)

	c.Assert(diff.TablesAdded, qt.DeepEquals, []string{"accounts", "contacts"})
}

func TestCompareTable_UnknownLiveTableColumns(t *testing.T) {
	c := qt.New(t)

	tableDiff := schemadiff.CompareTable(testEntity, dbtypes.DBTable{Name: "accounts"})

	c.Assert(tableDiff.ColumnsAdded, qt.DeepEquals, []string{"id", "name", "annual_revenue"})
}
