package constants

import "strings"

// SystemTablePrefix is the prefix for all system tables
const SystemTablePrefix = "_System_"

// System table names
const (
	TableEntity         = "_System_Entity"
	TableField          = "_System_Field"
	TableForm           = "_System_Form"
	TableRecord         = "_System_Record"
	TableValidationRule = "_System_ValidationRule"
)

// Built-in entity codes registered at bootstrap
const (
	EntityContact     = "contact"
	EntityLead        = "lead"
	EntityServiceItem = "service_item"
)

// IsSystemTable checks if a table name is a system table
func IsSystemTable(tableName string) bool {
	return strings.HasPrefix(tableName, SystemTablePrefix)
}
