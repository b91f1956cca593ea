package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/models"
)

// FormRepository persists form definitions and their serialized layouts
type FormRepository struct {
	db *sql.DB
}

// NewFormRepository creates a new FormRepository
func NewFormRepository(db *sql.DB) *FormRepository {
	return &FormRepository{db: db}
}

var formColumns = []string{
	"id",
	"entity_id",
	"name",
	"`type`",
	"is_default",
	"layout",
	"updated_at",
}

// GetFormByID queries one form definition; nil without error when missing
func (r *FormRepository) GetFormByID(ctx context.Context, id string) (*models.FormDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(formColumns, ", "), constants.TableForm)
	f, err := scanForm(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan form: %w", err)
	}
	return f, nil
}

// GetFormForMode queries the default form for an entity and mode; nil without
// error when the mode has never been saved
func (r *FormRepository) GetFormForMode(ctx context.Context, entityID string, mode models.FormMode) (*models.FormDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_id = ? AND `type` = ? ORDER BY is_default DESC, updated_at DESC LIMIT 1",
		strings.Join(formColumns, ", "), constants.TableForm)
	f, err := scanForm(r.db.QueryRowContext(ctx, query, entityID, string(mode)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan form: %w", err)
	}
	return f, nil
}

// InsertForm persists a new form definition
func (r *FormRepository) InsertForm(ctx context.Context, f *models.FormDefinition) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		constants.TableForm, strings.Join(formColumns, ", "))
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.EntityDefinitionID, f.Name, string(f.Type), f.IsDefault, f.LayoutJSON, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert form: %w", err)
	}
	return nil
}

// UpdateFormLayout replaces the stored layout and bumps updated_at.
// Forms are never implicitly deleted; this row outlives every save.
func (r *FormRepository) UpdateFormLayout(ctx context.Context, id, layoutJSON string, updatedAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET layout = ?, updated_at = ? WHERE id = ?", constants.TableForm)
	res, err := r.db.ExecContext(ctx, query, layoutJSON, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update form layout: %w", err)
	}
	return requireRow(res)
}

// CountFormsForMode counts saved forms for an entity and mode, used when
// generating a unique name for a newly created form
func (r *FormRepository) CountFormsForMode(ctx context.Context, entityID string, mode models.FormMode) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE entity_id = ? AND `type` = ?", constants.TableForm)
	var count int
	if err := r.db.QueryRowContext(ctx, query, entityID, string(mode)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count forms: %w", err)
	}
	return count, nil
}

func scanForm(row rowScanner) (*models.FormDefinition, error) {
	var f models.FormDefinition
	var formType string
	if err := row.Scan(&f.ID, &f.EntityDefinitionID, &f.Name, &formType, &f.IsDefault, &f.LayoutJSON, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Type = models.FormMode(formType)
	return &f, nil
}
