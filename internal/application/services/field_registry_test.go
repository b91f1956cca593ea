package services

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formacrm/backend/internal/infrastructure/database"
	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
)

var entityCols = []string{"id", "name", "entity_code", "is_system", "category"}
var fieldCols = []string{"id", "entity_id", "label", "system_name", "data_type",
	"is_array", "is_required", "is_system", "is_deleted", "target_entity_code", "sort_order"}

func newTestMetadataService(t *testing.T) (*MetadataService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMetadataService(database.NewFromDB(db)), mock
}

// expectCacheRebuild arms the queries one snapshot rebuild issues: the entity
// list plus one field query per entity, deleted rows included
func expectCacheRebuild(mock sqlmock.Sqlmock, entities *sqlmock.Rows, fieldRows map[string]*sqlmock.Rows) {
	entityQuery := fmt.Sprintf("SELECT id, name, entity_code, is_system, category FROM %s ORDER BY name", constants.TableEntity)
	mock.ExpectQuery(regexp.QuoteMeta(entityQuery)).WillReturnRows(entities)

	fieldQuery := fmt.Sprintf("SELECT id, entity_id, label, system_name, data_type, is_array, is_required, is_system, is_deleted, target_entity_code, sort_order FROM %s WHERE entity_id = ? ORDER BY sort_order", constants.TableField)
	for entityID, rows := range fieldRows {
		mock.ExpectQuery(regexp.QuoteMeta(fieldQuery)).WithArgs(entityID).WillReturnRows(rows)
	}
}

func TestListFields_FiltersDeleted(t *testing.T) {
	ms, mock := newTestMetadataService(t)
	expectCacheRebuild(mock,
		sqlmock.NewRows(entityCols).AddRow("e1", "Contact", "contact", true, "Standard"),
		map[string]*sqlmock.Rows{"e1": sqlmock.NewRows(fieldCols).
			AddRow("f1", "e1", "Full Name", "full_name", "String", false, true, true, false, nil, 1).
			AddRow("f2", "e1", "Old Phone", "old_phone", "String", false, false, false, true, nil, 2)},
	)

	fields, err := ms.ListFields(context.Background(), "contact", false)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "full_name", fields[0].SystemName)

	// Same snapshot, no extra queries
	fields, err = ms.ListFields(context.Background(), "contact", true)
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateField_DerivesSystemName(t *testing.T) {
	ms, mock := newTestMetadataService(t)
	expectCacheRebuild(mock,
		sqlmock.NewRows(entityCols).AddRow("e1", "Service Item", "service_item", false, "Custom"),
		map[string]*sqlmock.Rows{"e1": sqlmock.NewRows(fieldCols)},
	)

	existsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE entity_id = ? AND system_name = ?", constants.TableField)
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).WithArgs("e1", "serijnyj_nomer").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	orderQuery := fmt.Sprintf("SELECT COALESCE(MAX(sort_order), 0) FROM %s WHERE entity_id = ?", constants.TableField)
	mock.ExpectQuery(regexp.QuoteMeta(orderQuery)).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))

	mock.ExpectExec(fmt.Sprintf("INSERT INTO %s", constants.TableField)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	field, err := ms.CreateField(context.Background(), "service_item", &models.CreateFieldRequest{
		Label:    "Серийный номер",
		DataType: constants.FieldTypeString,
	})
	require.NoError(t, err)
	assert.Equal(t, "serijnyj_nomer", field.SystemName)
	assert.Equal(t, 5, field.SortOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateField_RejectsDuplicateIncludingDeleted(t *testing.T) {
	ms, mock := newTestMetadataService(t)
	expectCacheRebuild(mock,
		sqlmock.NewRows(entityCols).AddRow("e1", "Contact", "contact", false, "Custom"),
		map[string]*sqlmock.Rows{"e1": sqlmock.NewRows(fieldCols)},
	)

	existsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE entity_id = ? AND system_name = ?", constants.TableField)
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).WithArgs("e1", "email").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := ms.CreateField(context.Background(), "contact", &models.CreateFieldRequest{
		Label:      "E-Mail",
		SystemName: "Email", // normalized to lowercase before the check
		DataType:   constants.FieldTypeString,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "not reused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateField_ValidationFailures(t *testing.T) {
	ms, mock := newTestMetadataService(t)
	expectCacheRebuild(mock,
		sqlmock.NewRows(entityCols).AddRow("e1", "Contact", "contact", false, "Custom"),
		map[string]*sqlmock.Rows{"e1": sqlmock.NewRows(fieldCols)},
	)

	ctx := context.Background()
	tests := []struct {
		name string
		req  models.CreateFieldRequest
	}{
		{"empty label", models.CreateFieldRequest{DataType: constants.FieldTypeString}},
		{"unknown data type", models.CreateFieldRequest{Label: "X", DataType: "Blob"}},
		{"bad explicit system name", models.CreateFieldRequest{Label: "X", SystemName: "9lives", DataType: constants.FieldTypeString}},
		{"entity link without target", models.CreateFieldRequest{Label: "X", DataType: constants.FieldTypeEntityLink}},
		{"label with no transliterable content", models.CreateFieldRequest{Label: "!!!", DataType: constants.FieldTypeString}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := ms.CreateField(ctx, "contact", &req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestDeleteField_SystemFieldRefused(t *testing.T) {
	ms, mock := newTestMetadataService(t)

	fieldQuery := fmt.Sprintf("SELECT id, entity_id, label, system_name, data_type, is_array, is_required, is_system, is_deleted, target_entity_code, sort_order FROM %s WHERE id = ?", constants.TableField)
	mock.ExpectQuery(regexp.QuoteMeta(fieldQuery)).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow("f1", "e1", "Full Name", "full_name", "String", false, true, true, false, nil, 1))

	err := ms.DeleteField(context.Background(), "f1")
	require.Error(t, err)
	assert.Equal(t, 403, errors.GetHTTPStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAndRestoreField(t *testing.T) {
	ms, mock := newTestMetadataService(t)

	fieldQuery := fmt.Sprintf("SELECT id, entity_id, label, system_name, data_type, is_array, is_required, is_system, is_deleted, target_entity_code, sort_order FROM %s WHERE id = ?", constants.TableField)
	updateQuery := fmt.Sprintf("UPDATE %s SET is_deleted = ? WHERE id = ?", constants.TableField)

	mock.ExpectQuery(regexp.QuoteMeta(fieldQuery)).WithArgs("f2").
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow("f2", "e1", "Phone", "phone", "String", false, false, false, false, nil, 2))
	mock.ExpectExec(regexp.QuoteMeta(updateQuery)).WithArgs(true, "f2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ms.DeleteField(context.Background(), "f2"))

	mock.ExpectQuery(regexp.QuoteMeta(fieldQuery)).WithArgs("f2").
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow("f2", "e1", "Phone", "phone", "String", false, false, false, true, nil, 2))
	mock.ExpectExec(regexp.QuoteMeta(updateQuery)).WithArgs(false, "f2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ms.RestoreField(context.Background(), "f2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteField_NotFound(t *testing.T) {
	ms, mock := newTestMetadataService(t)

	fieldQuery := fmt.Sprintf("SELECT id, entity_id, label, system_name, data_type, is_array, is_required, is_system, is_deleted, target_entity_code, sort_order FROM %s WHERE id = ?", constants.TableField)
	mock.ExpectQuery(regexp.QuoteMeta(fieldQuery)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(fieldCols))

	err := ms.DeleteField(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
