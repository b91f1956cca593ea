package services

import (
	"context"
	"log"
	"strings"

	"github.com/formacrm/backend/internal/domain/layout"
	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/dynamic"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/fieldtypes"
	"github.com/formacrm/backend/pkg/expression"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/utils"
)

// ValidationService handles record and layout validation logic
type ValidationService struct {
	engine   *expression.Engine
	repo     *persistence.MetadataRepository
	metadata *MetadataService
}

// NewValidationService creates a new ValidationService
func NewValidationService(engine *expression.Engine, repo *persistence.MetadataRepository, metadata *MetadataService) *ValidationService {
	return &ValidationService{engine: engine, repo: repo, metadata: metadata}
}

// MissingRequiredFields returns the required non-system fields a layout does
// not place anywhere. A layout missing one produces a save warning the editor
// must override with forceSave.
func (vs *ValidationService) MissingRequiredFields(fields []models.FieldDefinition, schema *layout.Schema) []models.FieldDefinition {
	placed := make(map[string]bool)
	for _, id := range schema.FieldIDs() {
		placed[id] = true
	}

	var missing []models.FieldDefinition
	for _, f := range fields {
		if f.IsRequired && !f.IsSystem && !f.IsDeleted && !placed[f.ID] {
			missing = append(missing, f)
		}
	}
	return missing
}

// ValidateBag checks an encoded property bag against the schema constraints
// and the entity's active validation rules. The first violation is returned
// as a field-level error.
func (vs *ValidationService) ValidateBag(bag dynamic.Bag, fields []models.FieldDefinition, rules []*models.ValidationRule) error {
	for _, f := range fields {
		if f.IsDeleted || f.IsSystem || !f.IsRequired {
			continue
		}
		v, ok := bag[f.SystemName]
		if !ok {
			return errors.NewValidationError(f.SystemName, "is required")
		}
		// A submitted boolean satisfies the requirement either way; an
		// unchecked required checkbox is still an answer.
		if v.Kind != fieldtypes.KindBool && v.IsZero() {
			return errors.NewValidationError(f.SystemName, "is required")
		}
	}

	if len(rules) == 0 {
		return nil
	}

	env := make(map[string]interface{}, len(bag))
	for name, v := range bag {
		env[name] = v.Wire()
	}

	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		// A condition that evaluates to true means the rule is violated
		violated, err := vs.engine.EvaluateBool(rule.Condition, env)
		if err != nil {
			log.Printf("⚠️ Validation rule '%s' failed to evaluate: %v", rule.Name, err)
			continue
		}
		if violated {
			return errors.NewValidationError(rule.Name, rule.ErrorMessage)
		}
	}
	return nil
}

// ValidateCondition compiles a rule condition without running it, surfacing
// syntax errors at rule creation time
func (vs *ValidationService) ValidateCondition(condition string) error {
	if err := vs.engine.Validate(condition, map[string]interface{}{}); err != nil {
		return errors.NewValidationError("condition", err.Error())
	}
	return nil
}

// ==================== Rule Management ====================

// GetRules returns all validation rules of an entity
func (vs *ValidationService) GetRules(ctx context.Context, entityCode string) ([]*models.ValidationRule, error) {
	if _, err := vs.metadata.GetEntityOrError(ctx, entityCode); err != nil {
		return nil, err
	}
	rules, err := vs.repo.GetValidationRules(ctx, strings.ToLower(entityCode))
	if err != nil {
		return nil, errors.NewInternalError("failed to load validation rules", err)
	}
	return rules, nil
}

// CreateRule validates and persists a new validation rule
func (vs *ValidationService) CreateRule(ctx context.Context, rule *models.ValidationRule) error {
	entity, err := vs.metadata.GetEntityOrError(ctx, rule.EntityCode)
	if err != nil {
		return err
	}
	rule.EntityCode = entity.EntityCode

	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Name == "" {
		return errors.NewValidationError("name", "Name is required")
	}
	if strings.TrimSpace(rule.Condition) == "" {
		return errors.NewValidationError("condition", "Condition is required")
	}
	if err := vs.ValidateCondition(rule.Condition); err != nil {
		return err
	}
	if rule.ErrorMessage == "" {
		rule.ErrorMessage = "Validation rule '" + rule.Name + "' failed"
	}

	if rule.ID == "" {
		rule.ID = utils.GenerateID()
	}
	if err := vs.repo.InsertValidationRule(ctx, rule); err != nil {
		return errors.NewInternalError("failed to create validation rule", err)
	}
	return nil
}

// DeleteRule removes a validation rule by ID
func (vs *ValidationService) DeleteRule(ctx context.Context, id string) error {
	if err := vs.repo.DeleteValidationRule(ctx, id); err != nil {
		return errors.NewInternalError("failed to delete validation rule", err)
	}
	return nil
}
