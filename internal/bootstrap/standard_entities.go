package bootstrap

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/formacrm/backend/internal/domain/layout"
	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/utils"
)

//go:embed standard_entities.json
var standardEntitiesJSON []byte

type seedField struct {
	Label            string  `json:"label"`
	SystemName       string  `json:"system_name"`
	DataType         string  `json:"data_type"`
	IsArray          bool    `json:"is_array"`
	IsRequired       bool    `json:"is_required"`
	TargetEntityCode *string `json:"target_entity_code"`
	SortOrder        int     `json:"sort_order"`
}

type seedEntity struct {
	Name       string      `json:"name"`
	EntityCode string      `json:"entity_code"`
	Fields     []seedField `json:"fields"`
}

// InitializeStandardEntities ensures the standard entities and their system
// fields exist. Each entity is seeded in its own transaction so a failure
// leaves no half-created registry entries.
func InitializeStandardEntities(tm *persistence.TransactionManager) error {
	log.Println("🔧 Initializing standard entities...")

	var seeds []seedEntity
	if err := json.Unmarshal(standardEntitiesJSON, &seeds); err != nil {
		return fmt.Errorf("failed to parse standard_entities.json: %w", err)
	}

	skipLayouts := os.Getenv(constants.EnvSkipLayouts) == "true"

	for _, seed := range seeds {
		err := tm.WithTransaction(func(tx *sql.Tx) error {
			entityID, created, err := ensureEntity(tx, seed)
			if err != nil {
				return err
			}
			fieldIDs, err := ensureFields(tx, entityID, seed.Fields)
			if err != nil {
				return err
			}
			if created && !skipLayouts {
				if err := ensureDefaultForms(tx, entityID, seed.EntityCode, fieldIDs); err != nil {
					return err
				}
			}
			if created {
				log.Printf("   ✅ Entity '%s' created with %d fields", seed.EntityCode, len(seed.Fields))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to seed entity %s: %w", seed.EntityCode, err)
		}
	}
	return nil
}

// ensureEntity inserts the entity row when missing, returning its ID and
// whether this run created it
func ensureEntity(tx *sql.Tx, seed seedEntity) (string, bool, error) {
	var id string
	query := fmt.Sprintf("SELECT id FROM %s WHERE entity_code = ?", constants.TableEntity)
	err := tx.QueryRow(query, seed.EntityCode).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, err
	}

	id = utils.GenerateID()
	insert := fmt.Sprintf("INSERT INTO %s (id, name, entity_code, is_system, category) VALUES (?, ?, ?, ?, ?)",
		constants.TableEntity)
	if _, err := tx.Exec(insert, id, seed.Name, seed.EntityCode, true, string(constants.CategoryStandard)); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ensureFields inserts missing system fields and returns the IDs of every
// seeded field, present or created, in seed order
func ensureFields(tx *sql.Tx, entityID string, fields []seedField) ([]string, error) {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		var id string
		query := fmt.Sprintf("SELECT id FROM %s WHERE entity_id = ? AND system_name = ?", constants.TableField)
		err := tx.QueryRow(query, entityID, f.SystemName).Scan(&id)
		if err == nil {
			ids = append(ids, id)
			continue
		}
		if err != sql.ErrNoRows {
			return nil, err
		}

		id = utils.GenerateID()
		insert := fmt.Sprintf(`INSERT INTO %s
			(id, entity_id, label, system_name, data_type, is_array, is_required, is_system, is_deleted, target_entity_code, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableField)
		_, err = tx.Exec(insert, id, entityID, f.Label, f.SystemName, f.DataType,
			f.IsArray, f.IsRequired, true, false, f.TargetEntityCode, f.SortOrder)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ensureDefaultForms writes an initial layout for each form mode: a single
// group holding the seeded fields in order
func ensureDefaultForms(tx *sql.Tx, entityID, entityCode string, fieldIDs []string) error {
	group := layout.NewNode(layout.NodeGroup)
	group.Title = "Information"
	for _, id := range fieldIDs {
		group.Children = append(group.Children, layout.NewFieldNode(id))
	}
	schema := layout.NewSchema()
	schema.Nodes = append(schema.Nodes, group)
	layoutJSON, err := schema.Serialize()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	modes := []models.FormMode{constants.FormModeCreate, constants.FormModeEdit, constants.FormModeView}
	for _, mode := range modes {
		insert := fmt.Sprintf("INSERT INTO %s (id, entity_id, name, `type`, is_default, layout, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			constants.TableForm)
		name := fmt.Sprintf("%s_%s_form", entityCode, strings.ToLower(string(mode)))
		if _, err := tx.Exec(insert, utils.GenerateID(), entityID, name, string(mode), true, layoutJSON, now); err != nil {
			return err
		}
	}
	return nil
}
