package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/models"
)

// MetadataRepository persists entity and field definitions
type MetadataRepository struct {
	db *sql.DB
}

// NewMetadataRepository creates a new MetadataRepository
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

var entityColumns = []string{
	"id",
	"name",
	"entity_code",
	"is_system",
	"category",
}

var fieldColumns = []string{
	"id",
	"entity_id",
	"label",
	"system_name",
	"data_type",
	"is_array",
	"is_required",
	"is_system",
	"is_deleted",
	"target_entity_code",
	"sort_order",
}

// =================================================================================
// Entity Definitions
// =================================================================================

// GetAllEntities queries all entity definitions
func (r *MetadataRepository) GetAllEntities(ctx context.Context) ([]*models.EntityDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY name", strings.Join(entityColumns, ", "), constants.TableEntity)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []*models.EntityDefinition
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// GetEntityByCode queries a single entity definition by its stable code.
// Returns nil without error when no row matches.
func (r *MetadataRepository) GetEntityByCode(ctx context.Context, code string) (*models.EntityDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_code = ?", strings.Join(entityColumns, ", "), constants.TableEntity)
	e, err := scanEntity(r.db.QueryRowContext(ctx, query, strings.ToLower(code)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	return e, nil
}

// GetEntityByID queries a single entity definition by row id
func (r *MetadataRepository) GetEntityByID(ctx context.Context, id string) (*models.EntityDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(entityColumns, ", "), constants.TableEntity)
	e, err := scanEntity(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	return e, nil
}

// InsertEntity persists a new entity definition
func (r *MetadataRepository) InsertEntity(ctx context.Context, e *models.EntityDefinition) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)",
		constants.TableEntity, strings.Join(entityColumns, ", "))
	_, err := r.db.ExecContext(ctx, query, e.ID, e.Name, strings.ToLower(e.EntityCode), e.IsSystem, string(e.Category))
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// UpdateEntityName updates the display name; entity_code is immutable
func (r *MetadataRepository) UpdateEntityName(ctx context.Context, id, name string) error {
	query := fmt.Sprintf("UPDATE %s SET name = ? WHERE id = ?", constants.TableEntity)
	res, err := r.db.ExecContext(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	return requireRow(res)
}

// =================================================================================
// Field Definitions
// =================================================================================

// GetFieldsForEntity queries field definitions ordered by sort_order
func (r *MetadataRepository) GetFieldsForEntity(ctx context.Context, entityID string, includeDeleted bool) ([]models.FieldDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_id = ?", strings.Join(fieldColumns, ", "), constants.TableField)
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}
	query += " ORDER BY sort_order"

	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fields := []models.FieldDefinition{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, *f)
	}
	return fields, rows.Err()
}

// GetFieldByID queries one field definition; nil without error when missing
func (r *MetadataRepository) GetFieldByID(ctx context.Context, id string) (*models.FieldDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(fieldColumns, ", "), constants.TableField)
	f, err := scanField(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan field: %w", err)
	}
	return f, nil
}

// SystemNameExists reports whether a field with the given normalized system
// name exists on the entity, deleted or not. Deleted names are never recycled.
func (r *MetadataRepository) SystemNameExists(ctx context.Context, entityID, systemName string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE entity_id = ? AND system_name = ?", constants.TableField)
	var count int
	if err := r.db.QueryRowContext(ctx, query, entityID, strings.ToLower(systemName)).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check system name: %w", err)
	}
	return count > 0, nil
}

// MaxSortOrder returns the highest sort_order among all fields of an entity,
// deleted included, or zero when the entity has none
func (r *MetadataRepository) MaxSortOrder(ctx context.Context, entityID string) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(sort_order), 0) FROM %s WHERE entity_id = ?", constants.TableField)
	var max int
	if err := r.db.QueryRowContext(ctx, query, entityID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to query sort order: %w", err)
	}
	return max, nil
}

// InsertField persists a new field definition. The UNIQUE KEY on
// (entity_id, system_name) makes the loser of two concurrent creates fail
// deterministically; no in-process lock guards this.
func (r *MetadataRepository) InsertField(ctx context.Context, f *models.FieldDefinition) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableField, strings.Join(fieldColumns, ", "))
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.EntityDefinitionID, f.Label, strings.ToLower(f.SystemName), string(f.DataType),
		f.IsArray, f.IsRequired, f.IsSystem, f.IsDeleted, f.TargetEntityCode, f.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert field: %w", err)
	}
	return nil
}

// SetFieldDeleted flips the soft-delete flag; the row is never removed
func (r *MetadataRepository) SetFieldDeleted(ctx context.Context, id string, deleted bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_deleted = ? WHERE id = ?", constants.TableField)
	res, err := r.db.ExecContext(ctx, query, deleted, id)
	if err != nil {
		return fmt.Errorf("failed to update field: %w", err)
	}
	return requireRow(res)
}

// =================================================================================
// Validation Rules
// =================================================================================

var ruleColumns = []string{
	"id",
	"entity_code",
	"name",
	"active",
	"`condition`",
	"error_message",
}

// GetValidationRules queries the rules configured for an entity
func (r *MetadataRepository) GetValidationRules(ctx context.Context, entityCode string) ([]*models.ValidationRule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_code = ? ORDER BY name",
		strings.Join(ruleColumns, ", "), constants.TableValidationRule)
	rows, err := r.db.QueryContext(ctx, query, entityCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []*models.ValidationRule{}
	for rows.Next() {
		rule := &models.ValidationRule{}
		if err := rows.Scan(&rule.ID, &rule.EntityCode, &rule.Name, &rule.Active, &rule.Condition, &rule.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan validation rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// InsertValidationRule persists a new rule
func (r *MetadataRepository) InsertValidationRule(ctx context.Context, rule *models.ValidationRule) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)",
		constants.TableValidationRule, strings.Join(ruleColumns, ", "))
	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.EntityCode, rule.Name, rule.Active, rule.Condition, rule.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert validation rule: %w", err)
	}
	return nil
}

// DeleteValidationRule removes a rule
func (r *MetadataRepository) DeleteValidationRule(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableValidationRule)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete validation rule: %w", err)
	}
	return requireRow(res)
}

// =================================================================================
// Scan helpers
// =================================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*models.EntityDefinition, error) {
	var e models.EntityDefinition
	var category string
	if err := row.Scan(&e.ID, &e.Name, &e.EntityCode, &e.IsSystem, &category); err != nil {
		return nil, err
	}
	e.Category = constants.EntityCategory(category)
	return &e, nil
}

func scanField(row rowScanner) (*models.FieldDefinition, error) {
	var f models.FieldDefinition
	var dataType string
	var target sql.NullString
	if err := row.Scan(&f.ID, &f.EntityDefinitionID, &f.Label, &f.SystemName, &dataType,
		&f.IsArray, &f.IsRequired, &f.IsSystem, &f.IsDeleted, &target, &f.SortOrder); err != nil {
		return nil, err
	}
	f.DataType = models.FieldType(dataType)
	if target.Valid {
		f.TargetEntityCode = &target.String
	}
	return &f, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
