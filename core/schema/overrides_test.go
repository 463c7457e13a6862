package schema_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/schema"
)

const overrideYAML = `
entities:
  contact:
    fields:
      - column: linkedin_url
        api_name: LinkedIn_URL
        type: text
      - column: graduation_year
        api_name: Graduation_Year
        type: integer
`

func TestApplyOverrides(t *testing.T) {
	c := qt.New(t)

	overrides, err := schema.ParseOverrides([]byte(overrideYAML))
	c.Assert(err, qt.IsNil)

	base := schema.DefaultRegistry()
	merged, err := base.Apply(overrides)
	c.Assert(err, qt.IsNil)

	contact, ok := merged.Entity("contact")
	c.Assert(ok, qt.IsTrue)

	f, ok := contact.FieldByColumn("linkedin_url")
	c.Assert(ok, qt.IsTrue)
	c.Assert(f.APIName, qt.Equals, "LinkedIn_URL")
	c.Assert(f.Type, qt.Equals, schema.TypeText)
	c.Assert(f.PrimaryKey, qt.IsFalse)

	// Extra fields are requested from the API like declared ones.
	c.Assert(contact.APIFieldNames(), qt.Contains, "Graduation_Year")

	// The base registry is untouched.
	original, _ := base.Entity("contact")
	_, ok = original.FieldByColumn("linkedin_url")
	c.Assert(ok, qt.IsFalse)
}

func TestApplyOverrides_Empty(t *testing.T) {
	c := qt.New(t)

	base := schema.DefaultRegistry()
	merged, err := base.Apply(nil)

	c.Assert(err, qt.IsNil)
	c.Assert(merged, qt.Equals, base)
}

func TestApplyOverrides_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown entity",
			yaml: `
entities:
  widget:
    fields:
      - column: color
        api_name: Color
        type: text
`,
			wantErr: "unknown entity",
		},
		{
			name: "redeclared column",
			yaml: `
entities:
  contact:
    fields:
      - column: email
        api_name: Email_2
        type: text
`,
			wantErr: "redeclares",
		},
		{
			name: "missing api_name",
			yaml: `
entities:
  contact:
    fields:
      - column: linkedin_url
        type: text
`,
			wantErr: "no api_name",
		},
		{
			name: "unknown type",
			yaml: `
entities:
  contact:
    fields:
      - column: score
        api_name: Score
        type: decimal
`,
			wantErr: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			overrides, err := schema.ParseOverrides([]byte(tt.yaml))
			c.Assert(err, qt.IsNil)

			_, err = schema.DefaultRegistry().Apply(overrides)
			c.Assert(err, qt.IsNotNil)
			c.Assert(err.Error(), qt.Contains, tt.wantErr)
		})
	}
}

func TestParseOverrides_BadYAML(t *testing.T) {
	c := qt.New(t)

	_, err := schema.ParseOverrides([]byte("entities: ["))

	c.Assert(err, qt.IsNotNil)
}
