package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides declares extra per-entity fields merged into the registry at
// startup. Deployments use this to sync CRM custom fields without a code
// change: the extra columns are added to the live tables by the next
// migration run and requested from the API on every extraction.
type Overrides struct {
	Entities map[string]EntityOverride `yaml:"entities"`
}

// EntityOverride lists additional fields for one entity.
type EntityOverride struct {
	Fields []FieldOverride `yaml:"fields"`
}

// FieldOverride declares one extra field.
type FieldOverride struct {
	Column  string `yaml:"column"`
	APIName string `yaml:"api_name"`
	Type    string `yaml:"type"`
}

// LoadOverrides reads and parses an override file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override file: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides parses override YAML.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse override file: %w", err)
	}
	return &o, nil
}

// Apply merges the overrides into a copy of the registry and returns it. The
// receiver registry is left untouched. Extra fields are appended after the
// declared fields in file order; overriding a declared column or declaring a
// primary key is rejected.
func (r *Registry) Apply(o *Overrides) (*Registry, error) {
	if o == nil || len(o.Entities) == 0 {
		return r, nil
	}
	entities := r.Entities()
	for i := range entities {
		ov, ok := o.Entities[entities[i].Name]
		if !ok {
			continue
		}
		for _, fo := range ov.Fields {
			ft := FieldType(fo.Type)
			if !ft.Valid() {
				return nil, fmt.Errorf("override for %q column %q: unknown type %q", entities[i].Name, fo.Column, fo.Type)
			}
			if _, exists := entities[i].FieldByColumn(fo.Column); exists {
				return nil, fmt.Errorf("override for %q redeclares column %q", entities[i].Name, fo.Column)
			}
			if fo.APIName == "" {
				return nil, fmt.Errorf("override for %q column %q has no api_name", entities[i].Name, fo.Column)
			}
			entities[i].Fields = append(entities[i].Fields, Field{
				Column:  fo.Column,
				APIName: fo.APIName,
				Type:    ft,
			})
		}
	}
	for name := range o.Entities {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("override references unknown entity %q", name)
		}
	}
	return NewRegistry(entities...)
}
