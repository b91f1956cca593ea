package services

import (
	"context"
	"strings"

	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/translit"
	"github.com/formacrm/backend/pkg/utils"
)

// fallbackPrefix keeps auto-derived system names well-formed when a label
// transliterates to something starting with a digit
const fallbackPrefix = "fld"

// ==================== Field Registry ====================

// ListFields returns the fields of an entity ordered by sort order
func (ms *MetadataService) ListFields(ctx context.Context, entityCode string, includeDeleted bool) ([]models.FieldDefinition, error) {
	entity, err := ms.GetEntityOrError(ctx, entityCode)
	if err != nil {
		return nil, err
	}
	fields, err := ms.fieldsOf(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	if includeDeleted {
		return fields, nil
	}

	live := make([]models.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		if !f.IsDeleted {
			live = append(live, f)
		}
	}
	return live, nil
}

// CreateField validates and persists a new field definition. The system name
// comes from the request or is transliterated from the label; both paths end
// in the same normalized, pattern-checked form. Validation failures come back
// as field-level messages, never as panics.
func (ms *MetadataService) CreateField(ctx context.Context, entityCode string, req *models.CreateFieldRequest) (*models.FieldDefinition, error) {
	entity, err := ms.GetEntityOrError(ctx, entityCode)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, errors.NewValidationError("label", "Label is required")
	}

	if !constants.IsValidFieldType(string(req.DataType)) {
		return nil, errors.NewValidationError("data_type", "Unknown data type '"+string(req.DataType)+"'")
	}
	if req.DataType == constants.FieldTypeEntityLink {
		if req.TargetEntityCode == nil || strings.TrimSpace(*req.TargetEntityCode) == "" {
			return nil, errors.NewValidationError("target_entity_code", "EntityLink fields require a target entity")
		}
		if _, err := ms.GetEntityOrError(ctx, *req.TargetEntityCode); err != nil {
			return nil, errors.NewValidationError("target_entity_code", "Target entity '"+*req.TargetEntityCode+"' does not exist")
		}
	}

	systemName := strings.ToLower(strings.TrimSpace(req.SystemName))
	if systemName == "" {
		systemName = translit.DeriveSystemName(label, fallbackPrefix)
	}
	if systemName == "" || !translit.IsValidSystemName(systemName) {
		return nil, errors.NewValidationError("system_name",
			"System name must start with a letter and contain only lowercase letters, digits and underscores")
	}

	// Deleted names count: a restored field must find its historical values
	// under the same name, so soft-deleted names are never recycled.
	exists, err := ms.repo.SystemNameExists(ctx, entity.ID, systemName)
	if err != nil {
		return nil, errors.NewInternalError("failed to check field name", err)
	}
	if exists {
		return nil, errors.NewValidationError("system_name",
			"A field named '"+systemName+"' already exists on this entity (deleted field names are not reused)")
	}

	maxOrder, err := ms.repo.MaxSortOrder(ctx, entity.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to determine sort order", err)
	}

	field := &models.FieldDefinition{
		ID:                 utils.GenerateID(),
		EntityDefinitionID: entity.ID,
		Label:              label,
		SystemName:         systemName,
		DataType:           req.DataType,
		IsArray:            req.IsArray,
		IsRequired:         req.IsRequired,
		TargetEntityCode:   req.TargetEntityCode,
		SortOrder:          maxOrder + 1,
	}

	if err := ms.repo.InsertField(ctx, field); err != nil {
		// The unique key on (entity_id, system_name) fails the loser of two
		// concurrent creates; surface it the same way as the pre-check.
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, errors.NewValidationError("system_name",
				"A field named '"+systemName+"' already exists on this entity")
		}
		return nil, errors.NewInternalError("failed to create field", err)
	}

	ms.mu.Lock()
	ms.bumpEpochLocked()
	ms.mu.Unlock()
	return field, nil
}

// DeleteField soft-deletes a field. System fields are undeletable, and the
// row is kept so historical property bags still resolve against it.
func (ms *MetadataService) DeleteField(ctx context.Context, id string) error {
	field, err := ms.repo.GetFieldByID(ctx, id)
	if err != nil {
		return errors.NewInternalError("failed to load field", err)
	}
	if field == nil {
		return errors.NewNotFoundError("Field", id)
	}
	if field.IsSystem {
		return errors.NewPolicyError("delete", "field '"+field.SystemName+"'", "system fields cannot be deleted")
	}

	if err := ms.repo.SetFieldDeleted(ctx, id, true); err != nil {
		return errors.NewInternalError("failed to delete field", err)
	}

	ms.mu.Lock()
	ms.bumpEpochLocked()
	ms.mu.Unlock()
	return nil
}

// RestoreField clears the soft-delete flag. Property values written before
// the deletion become visible again without any backfill.
func (ms *MetadataService) RestoreField(ctx context.Context, id string) error {
	field, err := ms.repo.GetFieldByID(ctx, id)
	if err != nil {
		return errors.NewInternalError("failed to load field", err)
	}
	if field == nil {
		return errors.NewNotFoundError("Field", id)
	}

	if err := ms.repo.SetFieldDeleted(ctx, id, false); err != nil {
		return errors.NewInternalError("failed to restore field", err)
	}

	ms.mu.Lock()
	ms.bumpEpochLocked()
	ms.mu.Unlock()
	return nil
}
