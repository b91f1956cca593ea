package models

import (
	"time"

	"github.com/formacrm/backend/pkg/constants"
)

// FieldType is defined in pkg/constants
type FieldType = constants.SchemaFieldType

// FormMode is defined in pkg/constants
type FormMode = constants.FormMode

// EntityDefinition represents entity-level metadata.
// EntityCode is the stable machine key and never changes once data references it.
type EntityDefinition struct {
	ID         string                  `json:"id,omitempty"`
	Name       string                  `json:"name"`
	EntityCode string                  `json:"entity_code"`
	IsSystem   bool                    `json:"is_system,omitempty"`
	Category   constants.EntityCategory `json:"category,omitempty"`
}

// FieldDefinition represents one dynamic attribute of an entity.
// SystemName is unique per entity, case-insensitively, among live AND
// soft-deleted fields alike: deleted names are never recycled so historical
// property bags keep an unambiguous owner.
type FieldDefinition struct {
	ID                 string    `json:"id,omitempty"`
	EntityDefinitionID string    `json:"entity_definition_id"`
	Label              string    `json:"label"`
	SystemName         string    `json:"system_name"`
	DataType           FieldType `json:"data_type"`
	IsArray            bool      `json:"is_array,omitempty"`
	IsRequired         bool      `json:"is_required,omitempty"`
	IsSystem           bool      `json:"is_system,omitempty"`
	IsDeleted          bool      `json:"is_deleted,omitempty"`
	TargetEntityCode   *string   `json:"target_entity_code,omitempty"` // Set only for EntityLink fields
	SortOrder          int       `json:"sort_order"`
}

// CreateFieldRequest is the payload accepted by the field registry.
// SystemName is optional; when absent it is derived from Label.
type CreateFieldRequest struct {
	Label            string    `json:"label"`
	SystemName       string    `json:"system_name,omitempty"`
	DataType         FieldType `json:"data_type"`
	IsArray          bool      `json:"is_array,omitempty"`
	IsRequired       bool      `json:"is_required,omitempty"`
	TargetEntityCode *string   `json:"target_entity_code,omitempty"`
}

// FormDefinition represents a stored form for one entity and mode.
// The three modes are independent rows; there is no cross-mode merging.
type FormDefinition struct {
	ID                 string    `json:"id"`
	EntityDefinitionID string    `json:"entity_definition_id"`
	Name               string    `json:"name"`
	Type               FormMode  `json:"type"`
	IsDefault          bool      `json:"is_default,omitempty"`
	LayoutJSON         string    `json:"layout"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ValidationRule represents an expression rule evaluated against record submissions
type ValidationRule struct {
	ID           string `json:"id"`
	EntityCode   string `json:"entity_code"`
	Name         string `json:"name"`
	Active       bool   `json:"active"`
	Condition    string `json:"condition"`
	ErrorMessage string `json:"error_message"`
}
