// internal/app/features/formtemplates/handler.go
package formtemplates

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Templates *templatestore.Store
	Log       *zap.Logger

	// Descriptions accept limited rich text from the authoring UI; scripts
	// and event handlers are stripped on the way in.
	sanitizer *bluemonday.Policy
}

func NewHandler(templates *templatestore.Store, log *zap.Logger) *Handler {
	return &Handler{
		Templates: templates,
		Log:       log,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type fieldPayload struct {
	Order     int      `json:"order" validate:"required,min=1"`
	Label     string   `json:"label" validate:"required,max=200"`
	Type      string   `json:"type" validate:"required,oneof=text textarea number select checkbox date"`
	Required  bool     `json:"required"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	MaxLength *int     `json:"max_length"`
	Options   []string `json:"options" validate:"dive,max=200"`
}

type createTemplateRequest struct {
	Title       string         `json:"title" validate:"required,min=2,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Type        string         `json:"type" validate:"required,max=60"`
	Fields      []fieldPayload `json:"fields" validate:"required,min=1,dive"`
}

type updateTemplateRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Type        *string         `json:"type" validate:"omitempty,max=60"`
	Fields      *[]fieldPayload `json:"fields" validate:"omitempty,min=1,dive"`
}

func toModelFields(in []fieldPayload) []models.FormField {
	out := make([]models.FormField, 0, len(in))
	for _, f := range in {
		out = append(out, models.FormField{
			Order:     f.Order,
			Label:     f.Label,
			Type:      f.Type,
			Required:  f.Required,
			Min:       f.Min,
			Max:       f.Max,
			MaxLength: f.MaxLength,
			Options:   f.Options,
		})
	}
	return out
}

// Create handles POST /form-templates: version 0 of a new template.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	user, _ := auth.CurrentUser(r)
	if companyID == primitive.NilObjectID || user == nil {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	var req createTemplateRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tmpl, err := h.Templates.Create(ctx, models.FormTemplate{
		CompanyID:   companyID,
		Title:       req.Title,
		Description: h.sanitizer.Sanitize(req.Description),
		Type:        req.Type,
		Fields:      toModelFields(req.Fields),
		CreatedBy:   user.ID,
	})
	if err != nil {
		if err == templatestore.ErrDuplicateFieldOrder {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, tmpl)
}

// Update handles PUT /form-templates/{formKey}: appends a new version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	user, _ := auth.CurrentUser(r)
	if companyID == primitive.NilObjectID || user == nil {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	formKey := chi.URLParam(r, "formKey")

	var req updateTemplateRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	patch := templatestore.Patch{
		Title: req.Title,
		Type:  req.Type,
	}
	if req.Description != nil {
		clean := h.sanitizer.Sanitize(*req.Description)
		patch.Description = &clean
	}
	if req.Fields != nil {
		fields := toModelFields(*req.Fields)
		patch.Fields = &fields
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tmpl, err := h.Templates.UpdateNewVersion(ctx, companyID, formKey, user.ID, patch)
	if err != nil {
		if err == templatestore.ErrDuplicateFieldOrder {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tmpl)
}

// List handles GET /form-templates: latest version of every template the
// company owns.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Templates.ListLatestForCompany(ctx, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetLatest handles GET /form-templates/{formKey}.
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	formKey := chi.URLParam(r, "formKey")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tmpl, err := h.Templates.LatestByKeyForCompany(ctx, companyID, formKey)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tmpl)
}

// History handles GET /form-templates/{formKey}/versions.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	formKey := chi.URLParam(r, "formKey")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	versions, err := h.Templates.ListVersions(ctx, companyID, formKey)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if len(versions) == 0 {
		respond.Message(w, http.StatusNotFound, "form not found")
		return
	}
	respond.JSON(w, http.StatusOK, versions)
}

// GetVersion handles GET /form-templates/versions/{templateID}: one exact
// historical version by document id. This is how frozen snapshots resolve
// their full field lists.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	templateID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "templateID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid template id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tmpl, err := h.Templates.GetByID(ctx, templateID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	// Clients render intake snapshots by exact version id, so they may
	// read template versions from any company they requested against.
	if !authz.CanAccessCompany(r, tmpl.CompanyID) && !authz.IsClient(r) {
		respond.Message(w, http.StatusForbidden, "forbidden")
		return
	}
	respond.JSON(w, http.StatusOK, tmpl)
}
