package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/dynamic"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/utils"
)

// DefaultListLimit caps record listings when no limit is requested
const DefaultListLimit = 50

// Record is an entity instance with its decoded property bag
type Record struct {
	ID               string                 `json:"id"`
	EntityCode       string                 `json:"entityCode"`
	Properties       map[string]interface{} `json:"properties"`
	CreatedDate      time.Time              `json:"createdDate"`
	LastModifiedDate time.Time              `json:"lastModifiedDate"`
}

// RecordService manages entity instances through the dynamic codec
type RecordService struct {
	records    *persistence.RecordRepository
	metadata   *MetadataService
	validation *ValidationService
}

// NewRecordService creates a new RecordService
func NewRecordService(records *persistence.RecordRepository, metadata *MetadataService, validation *ValidationService) *RecordService {
	return &RecordService{records: records, metadata: metadata, validation: validation}
}

// CreateRecord encodes a flat form submission, validates it and persists a
// new record
func (rs *RecordService) CreateRecord(ctx context.Context, entityCode string, form map[string][]string) (*Record, error) {
	entity, err := rs.metadata.GetEntityOrError(ctx, entityCode)
	if err != nil {
		return nil, err
	}
	fields, err := rs.metadata.ListFields(ctx, entity.EntityCode, false)
	if err != nil {
		return nil, err
	}

	bag := dynamic.Encode(form, fields)
	if err := rs.validateBag(ctx, entity.EntityCode, bag, fields); err != nil {
		return nil, err
	}
	properties, err := dynamic.Serialize(bag)
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize record", err)
	}

	now := time.Now().UTC()
	row := &persistence.RecordRow{
		ID:               utils.GenerateRecordID(),
		EntityCode:       entity.EntityCode,
		Properties:       properties,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := rs.records.Insert(ctx, row); err != nil {
		return nil, errors.NewInternalError("failed to create record", err)
	}
	return rs.toRecord(ctx, row), nil
}

// UpdateRecord re-encodes the submission and replaces the stored bag
// wholesale. Fields absent from the submission disappear from the bag.
func (rs *RecordService) UpdateRecord(ctx context.Context, entityCode, id string, form map[string][]string) (*Record, error) {
	row, err := rs.getScoped(ctx, entityCode, id)
	if err != nil {
		return nil, err
	}

	fields, err := rs.metadata.ListFields(ctx, row.EntityCode, false)
	if err != nil {
		return nil, err
	}
	bag := dynamic.Encode(form, fields)
	if err := rs.validateBag(ctx, row.EntityCode, bag, fields); err != nil {
		return nil, err
	}
	properties, err := dynamic.Serialize(bag)
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize record", err)
	}

	now := time.Now().UTC()
	if err := rs.records.UpdateProperties(ctx, id, properties, now); err != nil {
		return nil, errors.NewInternalError("failed to update record", err)
	}
	row.Properties = properties
	row.LastModifiedDate = now
	return rs.toRecord(ctx, row), nil
}

// GetRecord returns one record with its decoded bag
func (rs *RecordService) GetRecord(ctx context.Context, entityCode, id string) (*Record, error) {
	row, err := rs.getScoped(ctx, entityCode, id)
	if err != nil {
		return nil, err
	}
	return rs.toRecord(ctx, row), nil
}

// ListRecords returns records of an entity, optionally filtered by a search
// term matched against the stored properties
func (rs *RecordService) ListRecords(ctx context.Context, entityCode, term string, limit int) ([]*Record, error) {
	entity, err := rs.metadata.GetEntityOrError(ctx, entityCode)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = DefaultListLimit
	}

	rows, err := rs.records.List(ctx, entity.EntityCode, term, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list records", err)
	}
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, rs.toRecord(ctx, row))
	}
	return records, nil
}

// DeleteRecord removes a record permanently
func (rs *RecordService) DeleteRecord(ctx context.Context, entityCode, id string) error {
	if _, err := rs.getScoped(ctx, entityCode, id); err != nil {
		return err
	}
	if err := rs.records.Delete(ctx, id); err != nil {
		return errors.NewInternalError("failed to delete record", err)
	}
	return nil
}

// getScoped loads a record and confirms it belongs to the addressed entity.
// A record of another entity is indistinguishable from a missing one.
func (rs *RecordService) getScoped(ctx context.Context, entityCode, id string) (*persistence.RecordRow, error) {
	row, err := rs.records.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to load record", err)
	}
	if row == nil || !strings.EqualFold(row.EntityCode, entityCode) {
		return nil, errors.NewNotFoundError("Record", id)
	}
	return row, nil
}

func (rs *RecordService) validateBag(ctx context.Context, entityCode string, bag dynamic.Bag, fields []models.FieldDefinition) error {
	rules, err := rs.validation.GetRules(ctx, entityCode)
	if err != nil {
		return err
	}
	return rs.validation.ValidateBag(bag, fields, rules)
}

// toRecord decodes the stored bag into wire form. A bag that no longer parses
// is served empty rather than failing the read.
func (rs *RecordService) toRecord(ctx context.Context, row *persistence.RecordRow) *Record {
	fields, err := rs.metadata.ListFields(ctx, row.EntityCode, false)
	if err != nil {
		log.Printf("⚠️ Failed to load fields for record %s: %v", row.ID, err)
		fields = nil
	}
	bag, err := dynamic.Decode(row.Properties, fields)
	if err != nil {
		log.Printf("⚠️ Record %s has a malformed property bag: %v", row.ID, err)
	}

	properties := make(map[string]interface{}, len(bag))
	for name, v := range bag {
		properties[name] = v.Wire()
	}
	return &Record{
		ID:               row.ID,
		EntityCode:       row.EntityCode,
		Properties:       properties,
		CreatedDate:      row.CreatedDate,
		LastModifiedDate: row.LastModifiedDate,
	}
}
