package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/models"
)

// GetFields handles GET /api/metadata/entities/:entityCode/fields?include_deleted=true
func (h *MetadataHandler) GetFields(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	includeDeleted := c.Query("include_deleted") == "true"

	HandleGetEnvelope(c, "fields", func() (interface{}, error) {
		return h.svc.Metadata.ListFields(c.Request.Context(), code, includeDeleted)
	})
}

// CreateField handles POST /api/metadata/entities/:entityCode/fields
func (h *MetadataHandler) CreateField(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	var req models.CreateFieldRequest
	if !BindJSON(c, &req) {
		return
	}

	field, err := h.svc.Metadata.CreateField(c.Request.Context(), code, &req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Field created successfully",
		"field":                field,
	})
}

// DeleteField handles DELETE /api/metadata/fields/:id (soft delete)
func (h *MetadataHandler) DeleteField(c *gin.Context) {
	id := c.Param("id")
	HandleDeleteEnvelope(c, "Field deleted successfully", func() error {
		return h.svc.Metadata.DeleteField(c.Request.Context(), id)
	})
}

// RestoreField handles POST /api/metadata/fields/:id/restore
func (h *MetadataHandler) RestoreField(c *gin.Context) {
	id := c.Param("id")
	HandleDeleteEnvelope(c, "Field restored successfully", func() error {
		return h.svc.Metadata.RestoreField(c.Request.Context(), id)
	})
}

// GetFieldTypes handles GET /api/metadata/fieldtypes
func (h *MetadataHandler) GetFieldTypes(c *gin.Context) {
	HandleGetEnvelope(c, "field_types", func() (interface{}, error) {
		return constants.GetAllFieldTypes(), nil
	})
}
