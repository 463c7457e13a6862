// Package load maps raw CRM records to table rows and upserts them keyed on
// the external record identifier.
package load

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/talentbridge/crmsync/core/errs"
	"github.com/talentbridge/crmsync/core/schema"
)

// Row is one table row ready to load: column names in declaration order and
// the coerced values aligned with them. Key is the external identifier.
type Row struct {
	Key     string
	Columns []string
	Values  []any
}

// timestampLayouts are tried in order when parsing CRM timestamp strings.
var timestampLayouts = []string{
	time.RFC3339,                // Modified_Time: 2024-03-02T15:04:05+02:00
	"2006-01-02T15:04:05Z07:00", // explicit, same as RFC3339
	"2006-01-02 15:04:05",
	"2006-01-02", // date-only fields like Start_Date
}

// Transform maps a raw record onto the entity's declared columns, coercing
// each value to its semantic type. Lookup references collapse to the
// referenced record's id. A missing or empty external identifier, or a value
// that cannot be coerced, fails the record with an error wrapping
// errs.ErrTransform; the caller skips the record and continues.
func Transform(entity schema.Entity, raw map[string]any) (*Row, error) {
	row := &Row{
		Columns: make([]string, 0, len(entity.Fields)),
		Values:  make([]any, 0, len(entity.Fields)),
	}

	for _, f := range entity.Fields {
		if f.APIName == "" {
			continue
		}
		value, err := coerce(f, raw[f.APIName])
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrTransform,
				fmt.Sprintf("field %s of %s", f.APIName, entity.Name))
		}
		if f.PrimaryKey {
			key, _ := value.(string)
			if key == "" {
				return nil, fmt.Errorf("%w: record has no %s value", errs.ErrTransform, f.APIName)
			}
			row.Key = key
		}
		row.Columns = append(row.Columns, f.Column)
		row.Values = append(row.Values, value)
	}

	if row.Key == "" {
		return nil, fmt.Errorf("%w: record has no external identifier", errs.ErrTransform)
	}
	return row, nil
}

// coerce converts a decoded JSON value to the field's semantic type. nil maps
// to SQL NULL for every type.
func coerce(f schema.Field, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	// Lookup references arrive as {"id": ..., "name": ...}; only the id is
	// stored.
	if f.Reference != "" || f.PrimaryKey {
		return coerceID(value)
	}

	switch f.Type {
	case schema.TypeText:
		return coerceText(value)
	case schema.TypeLongText:
		return coerceLongText(value)
	case schema.TypeInteger:
		return coerceInteger(value)
	case schema.TypeBoolean:
		return coerceBoolean(value)
	case schema.TypeTimestamp:
		return coerceTimestamp(value)
	}
	return nil, fmt.Errorf("unknown field type %q", f.Type)
}

func coerceID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case map[string]any:
		id, ok := v["id"].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("lookup reference has no id")
		}
		return id, nil
	case float64:
		// Some deployments expose numeric record ids.
		return strconv.FormatInt(int64(v), 10), nil
	}
	return nil, fmt.Errorf("cannot use %T as record id", value)
}

func coerceText(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case map[string]any, []any:
		return marshalJSON(v)
	}
	return nil, fmt.Errorf("cannot coerce %T to text", value)
}

func coerceLongText(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case map[string]any, []any:
		// Structured data is serialized as text, matching the declared
		// large-text column.
		return marshalJSON(v)
	}
	return coerceText(value)
}

func coerceInteger(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as integer", v)
		}
		return int64(f), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to integer", value)
}

func coerceBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as boolean", v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to boolean", value)
}

func coerceTimestamp(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %T to timestamp", value)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as timestamp", s)
}

func marshalJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize structured value: %w", err)
	}
	return string(data), nil
}
