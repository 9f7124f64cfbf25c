// internal/app/features/services/handler.go
package services

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/snapshot"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Services  *servicestore.Store
	Templates *templatestore.Store
	Log       *zap.Logger

	sanitizer *bluemonday.Policy
}

func NewHandler(services *servicestore.Store, templates *templatestore.Store, log *zap.Logger) *Handler {
	return &Handler{
		Services:  services,
		Templates: templates,
		Log:       log,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type accessPayload struct {
	FillableRoles       []string `json:"fillable_roles" validate:"dive,oneof=superadmin company staff client"`
	ViewableRoles       []string `json:"viewable_roles" validate:"dive,oneof=superadmin company staff client"`
	FillablePositionIDs []string `json:"fillable_position_ids" validate:"dive,len=24"`
	ViewablePositionIDs []string `json:"viewable_position_ids" validate:"dive,len=24"`
}

type formRefPayload struct {
	Order   int            `json:"order" validate:"required,min=1"`
	FormKey string         `json:"form_key" validate:"required"`
	Access  *accessPayload `json:"access"`
}

type staffRequirementPayload struct {
	PositionID string `json:"position_id" validate:"required,len=24"`
	MinCount   int    `json:"min_count" validate:"min=0"`
	MaxCount   int    `json:"max_count" validate:"min=0"`
}

type createServiceRequest struct {
	Name              string                    `json:"name" validate:"required,min=2,max=200"`
	Description       string                    `json:"description" validate:"max=5000"`
	Published         bool                      `json:"published"`
	StaffRequirements []staffRequirementPayload `json:"staff_requirements" validate:"dive"`
	ClientIntakeForms []formRefPayload          `json:"client_intake_forms" validate:"dive"`
	WorkOrderForms    []formRefPayload          `json:"work_order_forms" validate:"dive"`
	ReportForms       []formRefPayload          `json:"report_forms" validate:"dive"`
}

type updateServiceRequest struct {
	Name              *string                    `json:"name" validate:"omitempty,min=2,max=200"`
	Description       *string                    `json:"description" validate:"omitempty,max=5000"`
	Published         *bool                      `json:"published"`
	StaffRequirements *[]staffRequirementPayload `json:"staff_requirements" validate:"omitempty,dive"`
	ClientIntakeForms *[]formRefPayload          `json:"client_intake_forms" validate:"omitempty,dive"`
	WorkOrderForms    *[]formRefPayload          `json:"work_order_forms" validate:"omitempty,dive"`
	ReportForms       *[]formRefPayload          `json:"report_forms" validate:"omitempty,dive"`
}

// catalogEntry is the client-facing view of a published service: the
// service itself plus the current shapes of its intake forms.
type catalogEntry struct {
	Service     models.Service        `json:"service"`
	IntakeForms []models.FormSnapshot `json:"intake_forms"`
}

func toAccessMeta(in *accessPayload) (*models.AccessMeta, error) {
	if in == nil {
		return nil, nil
	}
	fill, err := toObjectIDs(in.FillablePositionIDs)
	if err != nil {
		return nil, err
	}
	view, err := toObjectIDs(in.ViewablePositionIDs)
	if err != nil {
		return nil, err
	}
	return &models.AccessMeta{
		FillableRoles:       orEmpty(in.FillableRoles),
		ViewableRoles:       orEmpty(in.ViewableRoles),
		FillablePositionIDs: fill,
		ViewablePositionIDs: view,
	}, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func toObjectIDs(in []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(in))
	for _, s := range in {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// resolveFormRefs converts payload refs to model refs, verifying every
// form key resolves to a template the company owns.
func (h *Handler) resolveFormRefs(ctx context.Context, companyID primitive.ObjectID, in []formRefPayload) ([]models.ServiceFormRef, error) {
	out := make([]models.ServiceFormRef, 0, len(in))
	for _, ref := range in {
		if _, err := h.Templates.LatestByKeyForCompany(ctx, companyID, ref.FormKey); err != nil {
			return nil, fault.ErrInvalidReference
		}
		access, err := toAccessMeta(ref.Access)
		if err != nil {
			return nil, fault.ErrInvalidReference
		}
		out = append(out, models.ServiceFormRef{
			Order:   ref.Order,
			FormKey: ref.FormKey,
			Access:  access,
		})
	}
	return out, nil
}

func toStaffRequirements(in []staffRequirementPayload) ([]models.StaffRequirement, error) {
	out := make([]models.StaffRequirement, 0, len(in))
	for _, sr := range in {
		pid, err := primitive.ObjectIDFromHex(sr.PositionID)
		if err != nil {
			return nil, fault.ErrInvalidReference
		}
		out = append(out, models.StaffRequirement{
			PositionID: pid,
			MinCount:   sr.MinCount,
			MaxCount:   sr.MaxCount,
		})
	}
	return out, nil
}

// Create handles POST /services: version 0 of a new service.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	user, _ := auth.CurrentUser(r)
	if companyID == primitive.NilObjectID || user == nil {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	var req createServiceRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	intake, err := h.resolveFormRefs(ctx, companyID, req.ClientIntakeForms)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	workForms, err := h.resolveFormRefs(ctx, companyID, req.WorkOrderForms)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	reportForms, err := h.resolveFormRefs(ctx, companyID, req.ReportForms)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	staffReqs, err := toStaffRequirements(req.StaffRequirements)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	svc, err := h.Services.Create(ctx, models.Service{
		CompanyID:         companyID,
		Name:              req.Name,
		Description:       h.sanitizer.Sanitize(req.Description),
		Published:         req.Published,
		StaffRequirements: staffReqs,
		ClientIntakeForms: intake,
		WorkOrderForms:    workForms,
		ReportForms:       reportForms,
		CreatedBy:         user.ID,
	})
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, svc)
}

// Update handles PUT /services/{serviceKey}: appends a new version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	user, _ := auth.CurrentUser(r)
	if companyID == primitive.NilObjectID || user == nil {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	serviceKey := chi.URLParam(r, "serviceKey")

	var req updateServiceRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	patch := servicestore.Patch{
		Name:      req.Name,
		Published: req.Published,
	}
	if req.Description != nil {
		clean := h.sanitizer.Sanitize(*req.Description)
		patch.Description = &clean
	}
	if req.StaffRequirements != nil {
		srs, err := toStaffRequirements(*req.StaffRequirements)
		if err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		patch.StaffRequirements = &srs
	}
	for _, conv := range []struct {
		in  *[]formRefPayload
		out **[]models.ServiceFormRef
	}{
		{req.ClientIntakeForms, &patch.ClientIntakeForms},
		{req.WorkOrderForms, &patch.WorkOrderForms},
		{req.ReportForms, &patch.ReportForms},
	} {
		if conv.in == nil {
			continue
		}
		refs, err := h.resolveFormRefs(ctx, companyID, *conv.in)
		if err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		*conv.out = &refs
	}

	svc, err := h.Services.UpdateNewVersion(ctx, companyID, serviceKey, user.ID, patch)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, svc)
}

// List handles GET /services: the company's own services, latest versions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Services.ListLatestForCompany(ctx, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// GetLatest handles GET /services/{serviceKey} for the authoring side.
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	serviceKey := chi.URLParam(r, "serviceKey")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	svc, err := h.Services.LatestByKeyForCompany(ctx, companyID, serviceKey)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, svc)
}

// Catalog handles GET /services/catalog: every service whose latest
// version is published, across companies.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Services.ListPublished(ctx)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// CatalogDetail handles GET /services/catalog/{serviceKey}: the published
// latest version plus the current shapes of its intake forms, which is
// exactly what a client needs to file a request.
func (h *Handler) CatalogDetail(w http.ResponseWriter, r *http.Request) {
	serviceKey := chi.URLParam(r, "serviceKey")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	svc, err := h.Services.LatestByKey(ctx, serviceKey, true)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	intake := snapshot.BuildIntake(ctx, h.Templates, svc.ClientIntakeForms, h.Log)
	respond.JSON(w, http.StatusOK, catalogEntry{Service: svc, IntakeForms: intake})
}
