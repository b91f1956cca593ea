package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formacrm/backend/internal/domain/layout"
	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/dynamic"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/expression"
	"github.com/formacrm/backend/pkg/models"
)

func newBareValidationService() *ValidationService {
	return NewValidationService(expression.NewEngine(), nil, nil)
}

func TestMissingRequiredFields(t *testing.T) {
	vs := newBareValidationService()
	fields := []models.FieldDefinition{
		{ID: "f1", Label: "Name", IsRequired: true},
		{ID: "f2", Label: "Company"},
		{ID: "f3", Label: "Status", IsRequired: true},
		{ID: "f4", Label: "Owner", IsRequired: true, IsSystem: true},
		{ID: "f5", Label: "Legacy", IsRequired: true, IsDeleted: true},
	}

	schema, err := layout.ParseSchema(`{"nodes": [
		{"type": "group", "title": "Main", "children": [{"type": "field", "fieldId": "f1"}]}
	]}`)
	require.NoError(t, err)

	missing := vs.MissingRequiredFields(fields, schema)

	// f1 is placed; f2 is optional; system and deleted fields never count
	require.Len(t, missing, 1)
	assert.Equal(t, "f3", missing[0].ID)
}

func TestValidateBag_RequiredFields(t *testing.T) {
	vs := newBareValidationService()
	fields := []models.FieldDefinition{
		{ID: "f1", SystemName: "name", DataType: constants.FieldTypeString, IsRequired: true},
		{ID: "f2", SystemName: "tags", DataType: constants.FieldTypeCollection, IsArray: true, IsRequired: true},
	}

	err := vs.ValidateBag(dynamic.Bag{}, fields, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "name")

	bag := dynamic.Encode(map[string][]string{
		"name": {"Printer"},
		"tags": {"office"},
	}, fields)
	assert.NoError(t, vs.ValidateBag(bag, fields, nil))
}

func TestValidateBag_RequiredCheckboxUnchecked(t *testing.T) {
	vs := newBareValidationService()
	fields := []models.FieldDefinition{
		{ID: "f1", SystemName: "in_service", DataType: constants.FieldTypeBoolean, IsRequired: true},
	}

	// An unchecked checkbox submits its hidden "false" sentinel; that is an
	// answer and satisfies the requirement
	bag := dynamic.Encode(map[string][]string{"in_service": {"false"}}, fields)
	assert.NoError(t, vs.ValidateBag(bag, fields, nil))

	// A submission that never mentions the field still fails
	err := vs.ValidateBag(dynamic.Bag{}, fields, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in_service")
}

func TestValidateBag_Rules(t *testing.T) {
	vs := newBareValidationService()
	fields := []models.FieldDefinition{
		{ID: "f1", SystemName: "price", DataType: constants.FieldTypeNumber},
	}
	rules := []*models.ValidationRule{
		{Name: "price_floor", Active: true, Condition: `float(price) < 0`, ErrorMessage: "Price cannot be negative"},
		{Name: "inactive_rule", Active: false, Condition: `true`, ErrorMessage: "never fires"},
	}

	bag := dynamic.Encode(map[string][]string{"price": {"-5"}}, fields)
	err := vs.ValidateBag(bag, fields, rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Price cannot be negative")

	bag = dynamic.Encode(map[string][]string{"price": {"25"}}, fields)
	assert.NoError(t, vs.ValidateBag(bag, fields, rules))
}

func TestValidateBag_BrokenRuleIsSkipped(t *testing.T) {
	vs := newBareValidationService()
	rules := []*models.ValidationRule{
		{Name: "broken", Active: true, Condition: `nonsense(`, ErrorMessage: "unreachable"},
	}
	assert.NoError(t, vs.ValidateBag(dynamic.Bag{}, nil, rules))
}

func TestValidateCondition(t *testing.T) {
	vs := newBareValidationService()
	assert.NoError(t, vs.ValidateCondition(`price != ""`))

	err := vs.ValidateCondition(`price <`)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
