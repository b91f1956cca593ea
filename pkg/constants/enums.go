package constants

import "strings"

// SchemaFieldType represents the data type of a dynamic field
type SchemaFieldType string

const (
	FieldTypeString     SchemaFieldType = "String"
	FieldTypeNumber     SchemaFieldType = "Number"
	FieldTypeBoolean    SchemaFieldType = "Boolean"
	FieldTypeDateTime   SchemaFieldType = "DateTime"
	FieldTypeEntityLink SchemaFieldType = "EntityLink"
	FieldTypeCollection SchemaFieldType = "Collection"
)

// GetAllFieldTypes returns all valid field types as a slice of strings
func GetAllFieldTypes() []string {
	return []string{
		string(FieldTypeString),
		string(FieldTypeNumber),
		string(FieldTypeBoolean),
		string(FieldTypeDateTime),
		string(FieldTypeEntityLink),
		string(FieldTypeCollection),
	}
}

// IsValidFieldType checks whether the given string names a known field type
func IsValidFieldType(t string) bool {
	for _, ft := range GetAllFieldTypes() {
		if ft == t {
			return true
		}
	}
	return false
}

// FormMode represents the purpose of a form definition
type FormMode string

const (
	FormModeCreate FormMode = "Create"
	FormModeEdit   FormMode = "Edit"
	FormModeView   FormMode = "View"
)

// IsValidFormMode checks whether the given string names a known form mode
func IsValidFormMode(m string) bool {
	switch FormMode(m) {
	case FormModeCreate, FormModeEdit, FormModeView:
		return true
	}
	return false
}

// ParseFormMode resolves a mode name case-insensitively into its canonical
// form
func ParseFormMode(m string) (FormMode, bool) {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "create":
		return FormModeCreate, true
	case "edit":
		return FormModeEdit, true
	case "view":
		return FormModeView, true
	}
	return "", false
}

// EntityCategory defines the category of an entity definition
type EntityCategory string

const (
	CategoryStandard EntityCategory = "Standard"
	CategoryCustom   EntityCategory = "Custom"
)
