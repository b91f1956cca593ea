package rest

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formacrm/backend/internal/application/services"
	"github.com/formacrm/backend/pkg/constants"
	appErrors "github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
)

// FormHandler serves the form layout endpoints
type FormHandler struct {
	svc *services.ServiceManager
}

func NewFormHandler(svc *services.ServiceManager) *FormHandler {
	return &FormHandler{svc: svc}
}

// GetLayout handles GET /api/layouts/:entityCode?mode=edit
func (h *FormHandler) GetLayout(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	mode, ok := constants.ParseFormMode(c.DefaultQuery("mode", string(constants.FormModeEdit)))
	if !ok {
		RespondAppError(c, appErrors.NewValidationError("mode", "Unknown form mode: "+c.Query("mode")))
		return
	}

	schema, formID, err := h.svc.Forms.GetLayout(c.Request.Context(), code, models.FormMode(mode))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"layout": schema,
		"formId": formID,
	})
}

// SaveLayout handles POST /api/layouts/save
func (h *FormHandler) SaveLayout(c *gin.Context) {
	var req services.SaveLayoutRequest
	if !BindJSON(c, &req) {
		return
	}

	if user := GetUserFromContext(c); user != nil {
		log.Printf("🔧 Layout save for '%s' (%s) requested by %s", req.EntityCode, req.Mode, user.Email)
	}

	result, err := h.svc.Forms.SaveLayout(c.Request.Context(), &req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
