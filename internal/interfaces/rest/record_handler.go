package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formacrm/backend/internal/application/services"
	"github.com/formacrm/backend/pkg/constants"
)

// RecordHandler serves the entity instance endpoints
type RecordHandler struct {
	svc *services.ServiceManager
}

func NewRecordHandler(svc *services.ServiceManager) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// submission is the flat posted-form shape the dynamic codec encodes from.
// Every value arrives as a string list, mirroring an HTML form post.
type submission map[string][]string

// ListRecords handles GET /api/records/:entityCode?q=term&limit=50
func (h *RecordHandler) ListRecords(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	term := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	HandleGetEnvelope(c, "records", func() (interface{}, error) {
		return h.svc.Records.ListRecords(c.Request.Context(), code, term, limit)
	})
}

// GetRecord handles GET /api/records/:entityCode/:id
func (h *RecordHandler) GetRecord(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	id := c.Param("id")
	HandleGetEnvelope(c, "record", func() (interface{}, error) {
		return h.svc.Records.GetRecord(c.Request.Context(), code, id)
	})
}

// CreateRecord handles POST /api/records/:entityCode
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	var form submission
	if !BindJSON(c, &form) {
		return
	}

	record, err := h.svc.Records.CreateRecord(c.Request.Context(), code, form)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Record created successfully",
		"record":               record,
	})
}

// UpdateRecord handles PUT /api/records/:entityCode/:id
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	id := c.Param("id")
	var form submission
	if !BindJSON(c, &form) {
		return
	}

	HandleGetEnvelope(c, "record", func() (interface{}, error) {
		return h.svc.Records.UpdateRecord(c.Request.Context(), code, id, form)
	})
}

// DeleteRecord handles DELETE /api/records/:entityCode/:id
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	code := strings.ToLower(c.Param("entityCode"))
	id := c.Param("id")
	HandleDeleteEnvelope(c, "Record deleted successfully", func() error {
		return h.svc.Records.DeleteRecord(c.Request.Context(), code, id)
	})
}
