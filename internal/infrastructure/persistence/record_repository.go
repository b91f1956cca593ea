package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/formacrm/backend/pkg/constants"
)

// RecordRow is one stored entity instance: the identity columns plus the
// serialized property bag. Typing of the bag happens at the codec boundary,
// not here.
type RecordRow struct {
	ID               string    `json:"id"`
	EntityCode       string    `json:"entity_code"`
	Properties       string    `json:"-"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// RecordRepository handles storage of entity instances
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = "id, entity_code, properties, created_date, last_modified_date"

// Insert persists a new record with its property bag
func (r *RecordRepository) Insert(ctx context.Context, row *RecordRow) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", constants.TableRecord, recordColumns)
	_, err := r.db.ExecContext(ctx, query, row.ID, row.EntityCode, row.Properties, row.CreatedDate, row.LastModifiedDate)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// UpdateProperties replaces the stored bag wholesale; bags are never merged
func (r *RecordRepository) UpdateProperties(ctx context.Context, id, properties string, modified time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET properties = ?, last_modified_date = ? WHERE id = ?", constants.TableRecord)
	res, err := r.db.ExecContext(ctx, query, properties, modified, id)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireRow(res)
}

// Get queries one record; nil without error when missing
func (r *RecordRepository) Get(ctx context.Context, id string) (*RecordRow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", recordColumns, constants.TableRecord)
	row := &RecordRow{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID, &row.EntityCode, &row.Properties, &row.CreatedDate, &row.LastModifiedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	return row, nil
}

// List queries records of an entity, newest first. When term is non-empty it
// is substring-matched against the serialized property JSON: pragmatic, and
// limited to exact text matches by construction.
func (r *RecordRepository) List(ctx context.Context, entityCode, term string, limit int) ([]*RecordRow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_code = ?", recordColumns, constants.TableRecord)
	args := []interface{}{entityCode}
	if term != "" {
		query += " AND properties LIKE ?"
		args = append(args, "%"+term+"%")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []*RecordRow{}
	for rows.Next() {
		row := &RecordRow{}
		if err := rows.Scan(&row.ID, &row.EntityCode, &row.Properties, &row.CreatedDate, &row.LastModifiedDate); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, row)
	}
	return records, rows.Err()
}

// Delete removes a record
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableRecord)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireRow(res)
}
