// Package fieldtypes gives dynamic property values a typed representation.
// FieldDefinition.DataType is the authoritative tag; everything stored in a
// property bag is a string or a string slice at the wire, and the Kind here
// is what turns ad hoc string checks into exhaustive matches.
package fieldtypes

import (
	"strconv"
	"strings"
	"time"

	"github.com/formacrm/backend/pkg/constants"
)

// Kind enumerates the typed value sum
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindDate
	KindEntityRef
	KindArray
)

// KindOf maps a field's data type and multiplicity to a value kind
func KindOf(dataType constants.SchemaFieldType, isArray bool) Kind {
	if isArray || dataType == constants.FieldTypeCollection {
		return KindArray
	}
	switch dataType {
	case constants.FieldTypeNumber:
		return KindNumber
	case constants.FieldTypeBoolean:
		return KindBool
	case constants.FieldTypeDateTime:
		return KindDate
	case constants.FieldTypeEntityLink:
		return KindEntityRef
	default:
		return KindString
	}
}

// Value is one dynamic property value. Scalar holds every non-array kind;
// EntityRef scalars are identifier strings resolved externally.
type Value struct {
	Kind   Kind
	Scalar string
	Items  []string
}

// NewScalar creates a scalar value of the given kind
func NewScalar(kind Kind, raw string) Value {
	return Value{Kind: kind, Scalar: raw}
}

// NewArray creates an array value
func NewArray(items []string) Value {
	return Value{Kind: KindArray, Items: items}
}

// Zero returns the empty representation for a kind
func Zero(kind Kind) Value {
	switch kind {
	case KindBool:
		return Value{Kind: KindBool, Scalar: "false"}
	case KindArray:
		return Value{Kind: KindArray, Items: []string{}}
	default:
		return Value{Kind: kind}
	}
}

// IsZero reports whether the value carries no data
func (v Value) IsZero() bool {
	if v.Kind == KindArray {
		return len(v.Items) == 0
	}
	if v.Kind == KindBool {
		return v.Scalar == "" || v.Scalar == "false"
	}
	return v.Scalar == ""
}

// AsBool interprets the scalar as a boolean
func (v Value) AsBool() bool {
	s := strings.ToLower(strings.TrimSpace(v.Scalar))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// AsNumber interprets the scalar as a float64, zero on failure
func (v Value) AsNumber() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Scalar), 64)
	if err != nil {
		return 0
	}
	return f
}

// AsTime parses the scalar as RFC3339 or a plain date, zero time on failure
func (v Value) AsTime() time.Time {
	if t, err := time.Parse(time.RFC3339, v.Scalar); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", v.Scalar); err == nil {
		return t
	}
	return time.Time{}
}

// Wire returns the JSON-facing representation: string or []string
func (v Value) Wire() interface{} {
	if v.Kind == KindArray {
		if v.Items == nil {
			return []string{}
		}
		return v.Items
	}
	return v.Scalar
}
