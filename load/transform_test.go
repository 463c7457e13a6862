package load_test

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/errs"
	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/load"
)

func TestTransform_FullRecord(t *testing.T) {
	c := qt.New(t)

	raw := map[string]any{
		"id":              "4876876000000123456",
		"Account_Name":    "Initech",
		"Industry":        "Software",
		"Website":         "https://initech.example",
		"Phone":           "555-0100",
		"Billing_Address": map[string]any{"street": "42 Main St", "city": "Austin"},
		"Annual_Revenue":  float64(2500000),
		"Employees":       float64(120),
		"Modified_Time":   "2024-03-02T15:04:05+02:00",
	}

	row, err := load.Transform(schema.EntityAccount, raw)

	c.Assert(err, qt.IsNil)
	c.Assert(row.Key, qt.Equals, "4876876000000123456")
	c.Assert(row.Columns, qt.DeepEquals, []string{
		"id", "name", "industry", "website", "phone",
		"billing_address", "shipping_address", "annual_revenue",
		"employee_count", "updated_time",
	})
	c.Assert(row.Values[0], qt.Equals, "4876876000000123456")
	c.Assert(row.Values[1], qt.Equals, "Initech")
	// Structured address is serialized as text.
	c.Assert(row.Values[5], qt.Contains, `"city":"Austin"`)
	// Absent field maps to NULL.
	c.Assert(row.Values[6], qt.IsNil)
	c.Assert(row.Values[7], qt.Equals, int64(2500000))

	ts, ok := row.Values[9].(time.Time)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ts.UTC().Format(time.RFC3339), qt.Equals, "2024-03-02T13:04:05Z")
}

func TestTransform_LookupReference(t *testing.T) {
	c := qt.New(t)

	raw := map[string]any{
		"id":           "200",
		"First_Name":   "Ada",
		"Last_Name":    "Lovelace",
		"Account_Name": map[string]any{"id": "100", "name": "Initech"},
	}

	row, err := load.Transform(schema.EntityContact, raw)

	c.Assert(err, qt.IsNil)
	field, ok := schema.EntityContact.FieldByColumn("account_id")
	c.Assert(ok, qt.IsTrue)
	c.Assert(field.Reference, qt.Equals, "accounts")
	for i, col := range row.Columns {
		if col == "account_id" {
			c.Assert(row.Values[i], qt.Equals, "100")
		}
	}
}

func TestTransform_MissingID(t *testing.T) {
	c := qt.New(t)

	_, err := load.Transform(schema.EntityAccount, map[string]any{"Account_Name": "Initech"})

	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, errs.ErrTransform), qt.IsTrue)
}

func TestTransform_BadValue(t *testing.T) {
	c := qt.New(t)

	raw := map[string]any{
		"id":             "1",
		"Annual_Revenue": "not a number",
	}

	_, err := load.Transform(schema.EntityAccount, raw)

	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, errs.ErrTransform), qt.IsTrue)
	c.Assert(err.Error(), qt.Contains, "Annual_Revenue")
}

func TestTransform_Coercions(t *testing.T) {
	entity := schema.Entity{
		Name:  "sample",
		Table: "samples",
		Fields: []schema.Field{
			{Column: "id", APIName: "id", Type: schema.TypeText, PrimaryKey: true},
			{Column: "count", APIName: "Count", Type: schema.TypeInteger},
			{Column: "active", APIName: "Active", Type: schema.TypeBoolean},
			{Column: "when", APIName: "When", Type: schema.TypeTimestamp},
			{Column: "label", APIName: "Label", Type: schema.TypeText},
		},
	}

	tests := []struct {
		name     string
		raw      map[string]any
		column   string
		expected any
		wantErr  bool
	}{
		{
			name:     "integer from json number",
			raw:      map[string]any{"id": "1", "Count": float64(42)},
			column:   "count",
			expected: int64(42),
		},
		{
			name:     "integer from string",
			raw:      map[string]any{"id": "1", "Count": "42"},
			column:   "count",
			expected: int64(42),
		},
		{
			name:     "integer from empty string is null",
			raw:      map[string]any{"id": "1", "Count": ""},
			column:   "count",
			expected: nil,
		},
		{
			name:     "boolean from string",
			raw:      map[string]any{"id": "1", "Active": "true"},
			column:   "active",
			expected: true,
		},
		{
			name:    "boolean from garbage",
			raw:     map[string]any{"id": "1", "Active": "maybe"},
			column:  "active",
			wantErr: true,
		},
		{
			name:     "date only timestamp",
			raw:      map[string]any{"id": "1", "When": "2024-06-01"},
			column:   "when",
			expected: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "empty timestamp is null",
			raw:      map[string]any{"id": "1", "When": ""},
			column:   "when",
			expected: nil,
		},
		{
			name:    "unparseable timestamp",
			raw:     map[string]any{"id": "1", "When": "yesterday"},
			column:  "when",
			wantErr: true,
		},
		{
			name:     "text from number",
			raw:      map[string]any{"id": "1", "Label": float64(7)},
			column:   "label",
			expected: "7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			row, err := load.Transform(entity, tt.raw)

			if tt.wantErr {
				c.Assert(err, qt.IsNotNil)
				c.Assert(errors.Is(err, errs.ErrTransform), qt.IsTrue)
				return
			}
			c.Assert(err, qt.IsNil)
			for i, col := range row.Columns {
				if col == tt.column {
					c.Assert(row.Values[i], qt.Equals, tt.expected)
				}
			}
		})
	}
}

func TestTransform_SkipsLocalColumns(t *testing.T) {
	c := qt.New(t)

	// EntityDocument has no API-mapped fields, so nothing transforms.
	_, err := load.Transform(schema.EntityDocument, map[string]any{"id": "1"})

	c.Assert(err, qt.IsNotNil)
}
