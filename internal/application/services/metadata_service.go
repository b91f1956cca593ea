package services

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/formacrm/backend/internal/infrastructure/database"
	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/translit"
	"github.com/formacrm/backend/pkg/utils"
)

// metadataCache is one immutable snapshot of the registry, tagged with the
// epoch it was built at. Writers bump the service epoch; readers rebuild when
// their snapshot's epoch is stale. No nulled field, no manual invalidation.
type metadataCache struct {
	epoch        uint64
	entities     []*models.EntityDefinition
	entityByCode map[string]*models.EntityDefinition
	fieldsByID   map[string][]models.FieldDefinition // key: entity definition ID, deleted included
}

// MetadataService manages entity and field definitions
type MetadataService struct {
	db   *database.Connection
	repo *persistence.MetadataRepository

	mu    sync.RWMutex
	epoch uint64
	cache *metadataCache
}

// NewMetadataService creates a new MetadataService
func NewMetadataService(db *database.Connection) *MetadataService {
	return &MetadataService{
		db:   db,
		repo: persistence.NewMetadataRepository(db.DB()),
	}
}

// bumpEpochLocked marks every existing snapshot stale. Caller holds the lock.
func (ms *MetadataService) bumpEpochLocked() {
	ms.epoch++
}

// snapshot returns a cache snapshot no older than the current epoch
func (ms *MetadataService) snapshot(ctx context.Context) (*metadataCache, error) {
	ms.mu.RLock()
	cache, epoch := ms.cache, ms.epoch
	ms.mu.RUnlock()

	if cache != nil && cache.epoch == epoch {
		return cache, nil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	// Double check: another reader may have rebuilt while we waited
	if ms.cache != nil && ms.cache.epoch == ms.epoch {
		return ms.cache, nil
	}
	return ms.rebuildCacheLocked(ctx)
}

// rebuildCacheLocked reloads the registry. Caller holds the write lock.
func (ms *MetadataService) rebuildCacheLocked(ctx context.Context) (*metadataCache, error) {
	entities, err := ms.repo.GetAllEntities(ctx)
	if err != nil {
		return nil, errors.NewInternalError("failed to load entity definitions", err)
	}

	cache := &metadataCache{
		epoch:        ms.epoch,
		entities:     entities,
		entityByCode: make(map[string]*models.EntityDefinition, len(entities)),
		fieldsByID:   make(map[string][]models.FieldDefinition, len(entities)),
	}
	for _, e := range entities {
		cache.entityByCode[strings.ToLower(e.EntityCode)] = e
		fields, err := ms.repo.GetFieldsForEntity(ctx, e.ID, true)
		if err != nil {
			return nil, errors.NewInternalError("failed to load field definitions", err)
		}
		cache.fieldsByID[e.ID] = fields
	}

	ms.cache = cache
	log.Printf("🔄 Metadata cache rebuilt at epoch %d: %d entities", cache.epoch, len(entities))
	return cache, nil
}

// RefreshCache forces the next read to reload from storage
func (ms *MetadataService) RefreshCache() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.bumpEpochLocked()
}

// ==================== Entity Definitions ====================

// GetEntities returns all entity definitions
func (ms *MetadataService) GetEntities(ctx context.Context) ([]*models.EntityDefinition, error) {
	cache, err := ms.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cache.entities, nil
}

// GetEntityByCode returns an entity definition, or nil when unknown
func (ms *MetadataService) GetEntityByCode(ctx context.Context, code string) (*models.EntityDefinition, error) {
	cache, err := ms.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cache.entityByCode[strings.ToLower(code)], nil
}

// GetEntityOrError returns the entity or a NotFoundError
func (ms *MetadataService) GetEntityOrError(ctx context.Context, code string) (*models.EntityDefinition, error) {
	e, err := ms.GetEntityByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.NewNotFoundError("Entity", code)
	}
	return e, nil
}

// CreateEntity validates and persists a new entity definition. The entity
// code is derived from the name when absent and is immutable afterwards.
func (ms *MetadataService) CreateEntity(ctx context.Context, e *models.EntityDefinition) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return errors.NewValidationError("name", "Name is required")
	}

	code := strings.ToLower(strings.TrimSpace(e.EntityCode))
	if code == "" {
		code = translit.DeriveSystemName(e.Name, "entity")
	}
	if !translit.IsValidSystemName(code) {
		return errors.NewValidationError("entity_code",
			"Entity code must start with a letter and contain only lowercase letters, digits and underscores")
	}
	e.EntityCode = code

	existing, err := ms.GetEntityByCode(ctx, code)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.NewConflictError("Entity", "entity_code", code)
	}

	if e.ID == "" {
		e.ID = utils.GenerateID()
	}
	if e.Category == "" {
		e.Category = constants.CategoryCustom
	}

	if err := ms.repo.InsertEntity(ctx, e); err != nil {
		return errors.NewInternalError("failed to create entity", err)
	}

	ms.mu.Lock()
	ms.bumpEpochLocked()
	ms.mu.Unlock()
	return nil
}

// UpdateEntityName renames an entity; the code never changes
func (ms *MetadataService) UpdateEntityName(ctx context.Context, code, name string) error {
	e, err := ms.GetEntityOrError(ctx, code)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidationError("name", "Name is required")
	}

	if err := ms.repo.UpdateEntityName(ctx, e.ID, name); err != nil {
		return errors.NewInternalError("failed to rename entity", err)
	}

	ms.mu.Lock()
	ms.bumpEpochLocked()
	ms.mu.Unlock()
	return nil
}

// fieldsOf returns the cached field list of an entity, deleted included
func (ms *MetadataService) fieldsOf(ctx context.Context, entityID string) ([]models.FieldDefinition, error) {
	cache, err := ms.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return cache.fieldsByID[entityID], nil
}
