package services

import (
	"github.com/formacrm/backend/internal/infrastructure/database"
	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/expression"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	TxManager  *persistence.TransactionManager
	Metadata   *MetadataService
	Validation *ValidationService
	Forms      *FormService
	Records    *RecordService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection) *ServiceManager {
	sm := &ServiceManager{db: db}

	// Initialize services in dependency order
	sm.TxManager = persistence.NewTransactionManager(db)
	sm.Metadata = NewMetadataService(db)

	engine := expression.NewEngine()
	metadataRepo := persistence.NewMetadataRepository(db.DB())
	sm.Validation = NewValidationService(engine, metadataRepo, sm.Metadata)

	sm.Forms = NewFormService(persistence.NewFormRepository(db.DB()), sm.Metadata, sm.Validation)
	sm.Records = NewRecordService(persistence.NewRecordRepository(db.DB()), sm.Metadata, sm.Validation)

	return sm
}
