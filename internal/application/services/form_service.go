package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/formacrm/backend/internal/domain/layout"
	"github.com/formacrm/backend/internal/infrastructure/persistence"
	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/errors"
	"github.com/formacrm/backend/pkg/models"
	"github.com/formacrm/backend/pkg/utils"
)

// FormService manages form definitions and their layouts
type FormService struct {
	forms      *persistence.FormRepository
	metadata   *MetadataService
	validation *ValidationService
}

// NewFormService creates a new FormService
func NewFormService(forms *persistence.FormRepository, metadata *MetadataService, validation *ValidationService) *FormService {
	return &FormService{forms: forms, metadata: metadata, validation: validation}
}

// SaveLayoutRequest carries one layout save submission
type SaveLayoutRequest struct {
	EntityCode string `json:"entityCode"`
	Mode       string `json:"mode"`
	FormID     string `json:"formId,omitempty"`
	LayoutJSON string `json:"layout"`
	ForceSave  bool   `json:"forceSave,omitempty"`
}

// SaveLayoutResult reports the outcome of a layout save. A warning result
// means nothing was written and the client may retry with forceSave.
type SaveLayoutResult struct {
	Success bool   `json:"success"`
	Warning bool   `json:"warning,omitempty"`
	Message string `json:"message,omitempty"`
	FormID  string `json:"formId,omitempty"`
}

// SaveLayout normalizes and persists a layout. The submitted JSON is always
// re-serialized from the canonical tree, so the stored form never carries
// unknown nodes or out-of-range widths. Saves that would hide a required
// field are refused with a warning until the client sets forceSave.
func (fs *FormService) SaveLayout(ctx context.Context, req *SaveLayoutRequest) (*SaveLayoutResult, error) {
	entity, err := fs.metadata.GetEntityOrError(ctx, req.EntityCode)
	if err != nil {
		return nil, err
	}

	parsed, ok := constants.ParseFormMode(req.Mode)
	if !ok {
		return nil, errors.NewValidationError("mode", fmt.Sprintf("Unknown form mode: %s", req.Mode))
	}
	mode := models.FormMode(parsed)

	schema, err := layout.ParseSchema(req.LayoutJSON)
	if err != nil {
		// The stored layout is untouched on a parse failure
		return nil, errors.NewValidationError("layout", err.Error())
	}
	canonical, err := schema.Serialize()
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize layout", err)
	}

	if !req.ForceSave {
		fields, err := fs.metadata.ListFields(ctx, entity.EntityCode, false)
		if err != nil {
			return nil, err
		}
		if missing := fs.validation.MissingRequiredFields(fields, schema); len(missing) > 0 {
			labels := make([]string, len(missing))
			for i, f := range missing {
				labels[i] = f.Label
			}
			return &SaveLayoutResult{
				Warning: true,
				Message: fmt.Sprintf("Required fields are missing from the layout: %s", strings.Join(labels, ", ")),
			}, nil
		}
	}

	now := time.Now().UTC()

	if req.FormID != "" {
		form, err := fs.forms.GetFormByID(ctx, req.FormID)
		if err != nil {
			return nil, errors.NewInternalError("failed to load form", err)
		}
		if form == nil {
			return nil, errors.NewNotFoundError("Form", req.FormID)
		}
		if err := fs.forms.UpdateFormLayout(ctx, form.ID, canonical, now); err != nil {
			return nil, errors.NewInternalError("failed to save layout", err)
		}
		return &SaveLayoutResult{Success: true, Message: "Layout saved", FormID: form.ID}, nil
	}

	form, err := fs.forms.GetFormForMode(ctx, entity.ID, mode)
	if err != nil {
		return nil, errors.NewInternalError("failed to load form", err)
	}
	if form != nil {
		if err := fs.forms.UpdateFormLayout(ctx, form.ID, canonical, now); err != nil {
			return nil, errors.NewInternalError("failed to save layout", err)
		}
		return &SaveLayoutResult{Success: true, Message: "Layout saved", FormID: form.ID}, nil
	}

	count, err := fs.forms.CountFormsForMode(ctx, entity.ID, mode)
	if err != nil {
		return nil, errors.NewInternalError("failed to count forms", err)
	}
	name := fmt.Sprintf("%s_%s_form", entity.EntityCode, strings.ToLower(string(mode)))
	if count > 0 {
		name = fmt.Sprintf("%s_%d", name, count+1)
	}

	form = &models.FormDefinition{
		ID:                 utils.GenerateID(),
		EntityDefinitionID: entity.ID,
		Name:               name,
		Type:               mode,
		IsDefault:          count == 0,
		LayoutJSON:         canonical,
		UpdatedAt:          now,
	}
	if err := fs.forms.InsertForm(ctx, form); err != nil {
		return nil, errors.NewInternalError("failed to save layout", err)
	}
	log.Printf("✅ Created form '%s' for entity '%s'", form.Name, entity.EntityCode)
	return &SaveLayoutResult{Success: true, Message: "Layout saved", FormID: form.ID}, nil
}

// GetLayout returns the canonical layout tree for an entity and mode. When no
// form has ever been saved for the mode, a default layout is generated from
// the live field registry instead of failing.
func (fs *FormService) GetLayout(ctx context.Context, entityCode string, mode models.FormMode) (*layout.Schema, string, error) {
	entity, err := fs.metadata.GetEntityOrError(ctx, entityCode)
	if err != nil {
		return nil, "", err
	}
	if !constants.IsValidFormMode(string(mode)) {
		return nil, "", errors.NewValidationError("mode", fmt.Sprintf("Unknown form mode: %s", mode))
	}

	form, err := fs.forms.GetFormForMode(ctx, entity.ID, mode)
	if err != nil {
		return nil, "", errors.NewInternalError("failed to load form", err)
	}
	if form != nil {
		schema, err := layout.ParseSchema(form.LayoutJSON)
		if err != nil {
			// A stored layout that no longer parses falls back to the default
			log.Printf("⚠️ Stored layout for form %s is unreadable, generating default: %v", form.ID, err)
		} else {
			return schema, form.ID, nil
		}
	}

	fields, err := fs.metadata.ListFields(ctx, entity.EntityCode, false)
	if err != nil {
		return nil, "", err
	}
	return defaultLayout(fields), "", nil
}

// defaultLayout builds a single "Information" group holding every live field
// in registry order
func defaultLayout(fields []models.FieldDefinition) *layout.Schema {
	group := layout.NewNode(layout.NodeGroup)
	group.Title = "Information"
	for _, f := range fields {
		group.Children = append(group.Children, layout.NewFieldNode(f.ID))
	}
	schema := layout.NewSchema()
	schema.Nodes = append(schema.Nodes, group)
	return schema
}
