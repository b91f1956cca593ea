package rest

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formacrm/backend/internal/application/services"
	appErrors "github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
)

// MetadataHandler serves the entity and field registry endpoints
type MetadataHandler struct {
	svc *services.ServiceManager
}

func NewMetadataHandler(svc *services.ServiceManager) *MetadataHandler {
	return &MetadataHandler{svc: svc}
}

// GetEntities handles GET /api/metadata/entities
func (h *MetadataHandler) GetEntities(c *gin.Context) {
	HandleGetEnvelope(c, "entities", func() (interface{}, error) {
		return h.svc.Metadata.GetEntities(c.Request.Context())
	})
}

// GetEntity handles GET /api/metadata/entities/:entityCode
func (h *MetadataHandler) GetEntity(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	HandleGetEnvelope(c, "entity", func() (interface{}, error) {
		return h.svc.Metadata.GetEntityOrError(c.Request.Context(), code)
	})
}

// CreateEntity handles POST /api/metadata/entities
func (h *MetadataHandler) CreateEntity(c *gin.Context) {
	var entity models.EntityDefinition
	HandleCreateEnvelope(c, "entity", "Entity created successfully", &entity, func() error {
		return h.svc.Metadata.CreateEntity(c.Request.Context(), &entity)
	})
}

// UpdateEntity handles PATCH /api/metadata/entities/:entityCode
func (h *MetadataHandler) UpdateEntity(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	var req struct {
		Name string `json:"name"`
	}
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "entity", func() (interface{}, error) {
		if err := h.svc.Metadata.UpdateEntityName(c.Request.Context(), code, req.Name); err != nil {
			return nil, err
		}
		return h.svc.Metadata.GetEntityOrError(c.Request.Context(), code)
	})
}

// GetValidationRules handles GET /api/metadata/entities/:entityCode/rules
func (h *MetadataHandler) GetValidationRules(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	HandleGetEnvelope(c, "rules", func() (interface{}, error) {
		return h.svc.Validation.GetRules(c.Request.Context(), code)
	})
}

// CreateValidationRule handles POST /api/metadata/entities/:entityCode/rules
func (h *MetadataHandler) CreateValidationRule(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	rule := models.ValidationRule{Active: true}
	HandleCreateEnvelope(c, "rule", "Validation rule created successfully", &rule, func() error {
		rule.EntityCode = code
		return h.svc.Validation.CreateRule(c.Request.Context(), &rule)
	})
}

// DeleteValidationRule handles DELETE /api/metadata/rules/:id
func (h *MetadataHandler) DeleteValidationRule(c *gin.Context) {
	id := c.Param("id")
	HandleDeleteEnvelope(c, "Validation rule deleted successfully", func() error {
		if id == "" {
			return appErrors.NewValidationError("id", "Rule ID is required")
		}
		return h.svc.Validation.DeleteRule(c.Request.Context(), id)
	})
}
