// Package dynamic packs and unpacks the schemaless property bag stored on
// every entity instance. The bag is a JSON object mapping system names to
// string or []string values; all typing discipline lives at this boundary,
// driven by FieldDefinition metadata.
package dynamic

import (
	"encoding/json"
	"fmt"

	"github.com/formacrm/backend/pkg/fieldtypes"
	"github.com/formacrm/backend/pkg/models"
)

// Bag is the canonical in-memory form of a property bag
type Bag map[string]fieldtypes.Value

// Encode builds a bag from a flat posted-form representation. Only fields in
// the recognized set are read; submitted keys with no matching field are
// dropped, and fields with no submitted key are omitted from the bag.
// The bag replaces the stored one wholesale on each edit.
func Encode(form map[string][]string, fields []models.FieldDefinition) Bag {
	bag := make(Bag)
	for _, field := range fields {
		if field.IsDeleted {
			continue
		}
		submitted, ok := form[field.SystemName]
		if !ok {
			continue
		}

		kind := fieldtypes.KindOf(field.DataType, field.IsArray)

		if kind == fieldtypes.KindArray {
			items := make([]string, 0, len(submitted))
			for _, v := range submitted {
				if v != "" {
					items = append(items, v)
				}
			}
			if len(items) == 0 {
				continue
			}
			bag[field.SystemName] = fieldtypes.NewArray(items)
			continue
		}

		if kind == fieldtypes.KindBool {
			// Checkbox inputs submit a hidden "false" sentinel alongside the
			// checked "true"; any "true" among the submitted values wins.
			checked := false
			for _, v := range submitted {
				if v == "true" {
					checked = true
					break
				}
			}
			bag[field.SystemName] = fieldtypes.NewScalar(kind, fmt.Sprintf("%t", checked))
			continue
		}

		scalar := ""
		for _, v := range submitted {
			if v != "" {
				scalar = v
				break
			}
		}
		bag[field.SystemName] = fieldtypes.NewScalar(kind, scalar)
	}
	return bag
}

// Serialize renders a bag as JSON text for storage
func Serialize(bag Bag) (string, error) {
	wire := make(map[string]interface{}, len(bag))
	for name, v := range bag {
		wire[name] = v.Wire()
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to serialize property bag: %w", err)
	}
	return string(data), nil
}

// Decode parses stored JSON text into a bag. Malformed text fails soft: the
// returned bag is empty and usable, and the error reports the condition so
// callers can log it without breaking unrelated read paths.
func Decode(jsonText string, fields []models.FieldDefinition) (Bag, error) {
	bag := make(Bag)
	if jsonText == "" {
		return bag, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return bag, fmt.Errorf("malformed property bag: %w", err)
	}

	for _, field := range fields {
		rawVal, ok := raw[field.SystemName]
		if !ok {
			continue
		}
		kind := fieldtypes.KindOf(field.DataType, field.IsArray)
		bag[field.SystemName] = coerce(kind, rawVal)
	}
	return bag, nil
}

// ValueOf returns the bag's value for a field, or the zero representation of
// the field's type when the key is absent
func (b Bag) ValueOf(field models.FieldDefinition) fieldtypes.Value {
	if v, ok := b[field.SystemName]; ok {
		return v
	}
	return fieldtypes.Zero(fieldtypes.KindOf(field.DataType, field.IsArray))
}

// coerce normalizes a decoded JSON value into the field's kind. Scalars that
// arrive where an array is expected become a one-element array and vice versa,
// tolerating bags written before a multiplicity change was rejected upstream.
func coerce(kind fieldtypes.Kind, raw interface{}) fieldtypes.Value {
	if kind == fieldtypes.KindArray {
		switch v := raw.(type) {
		case []interface{}:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, stringify(item))
			}
			return fieldtypes.NewArray(items)
		default:
			s := stringify(v)
			if s == "" {
				return fieldtypes.NewArray([]string{})
			}
			return fieldtypes.NewArray([]string{s})
		}
	}

	if arr, ok := raw.([]interface{}); ok {
		if len(arr) == 0 {
			return fieldtypes.Zero(kind)
		}
		return fieldtypes.NewScalar(kind, stringify(arr[0]))
	}
	return fieldtypes.NewScalar(kind, stringify(raw))
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		// JSON numbers decode as float64; keep integers unsuffixed
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
