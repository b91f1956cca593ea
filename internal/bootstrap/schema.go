package bootstrap

import (
	"fmt"
	"log"

	"github.com/formacrm/backend/internal/infrastructure/database"
	"github.com/formacrm/backend/pkg/constants"
)

// systemTables holds the DDL for the metadata store. The UNIQUE KEY on
// (entity_id, system_name) is what serializes concurrent field creates:
// the registry performs no in-process locking beyond its cache mutex and
// relies on this constraint to fail the loser deterministically.
var systemTables = []string{
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		entity_code VARCHAR(100) NOT NULL,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		category VARCHAR(50) NOT NULL DEFAULT 'Custom',
		UNIQUE KEY uq_entity_code (entity_code)
	)`, constants.TableEntity),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		entity_id VARCHAR(36) NOT NULL,
		label VARCHAR(255) NOT NULL,
		system_name VARCHAR(100) NOT NULL,
		data_type VARCHAR(50) NOT NULL,
		is_array BOOLEAN NOT NULL DEFAULT FALSE,
		is_required BOOLEAN NOT NULL DEFAULT FALSE,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		target_entity_code VARCHAR(100) NULL,
		sort_order INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_field_name (entity_id, system_name)
	)`, constants.TableField),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		entity_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		`+"`type`"+` VARCHAR(20) NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		layout MEDIUMTEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_form_name (entity_id, name, `+"`type`"+`)
	)`, constants.TableForm),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		entity_code VARCHAR(100) NOT NULL,
		name VARCHAR(255) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		` + "`condition`" + ` TEXT NOT NULL,
		error_message VARCHAR(500) NOT NULL,
		KEY idx_rule_entity (entity_code)
	)`, constants.TableValidationRule),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(26) PRIMARY KEY,
		entity_code VARCHAR(100) NOT NULL,
		properties MEDIUMTEXT NOT NULL,
		created_date DATETIME NOT NULL,
		last_modified_date DATETIME NOT NULL,
		KEY idx_record_entity (entity_code)
	)`, constants.TableRecord),
}

// InitializeSchema creates the system tables when missing
func InitializeSchema(db *database.Connection) error {
	for _, ddl := range systemTables {
		if _, err := db.DB().Exec(ddl); err != nil {
			return fmt.Errorf("failed to create system table: %w", err)
		}
	}
	log.Println("✅ System tables verified")
	return nil
}
