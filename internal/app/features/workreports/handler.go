// internal/app/features/workreports/handler.go
package workreports

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	reportstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workreports"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/access"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Reports *reportstore.Store
	Orders  *orderstore.Store
	Log     *zap.Logger
}

func NewHandler(reports *reportstore.Store, orders *orderstore.Store, log *zap.Logger) *Handler {
	return &Handler{Reports: reports, Orders: orders, Log: log}
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress completed cancelled rejected"`
}

type visibleForm struct {
	Order   int              `json:"order"`
	Form    models.FormShape `json:"form"`
	CanFill bool             `json:"can_fill"`
}

// List handles GET /work-reports for the caller's company, optionally
// filtered by ?status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID && !authz.IsSuperAdmin(r) {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Reports.ListByCompany(ctx, companyID, r.URL.Query().Get("status"))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /work-reports/{reportID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, rep)
}

// GetByOrder handles GET /work-reports/by-order/{orderID}: the single
// report paired with a work order.
func (h *Handler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orderID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid work order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, err := h.Reports.GetByWorkOrder(ctx, orderID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if ok := h.authorize(w, r, rep); !ok {
		return
	}
	respond.JSON(w, http.StatusOK, rep)
}

// Forms handles GET /work-reports/{reportID}/forms: the report's snapshot
// list filtered by the caller's view access.
func (h *Handler) Forms(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	operator := authz.IsSuperAdmin(r) || authz.IsCompany(r)
	out := make([]visibleForm, 0, len(rep.ReportForms))
	for _, snap := range rep.ReportForms {
		canView := access.CanView(snap.Access, user.Role, user.PositionID)
		canFill := access.CanFill(snap.Access, user.Role, user.PositionID)
		if operator {
			canView = true
		}
		if !canView {
			continue
		}
		out = append(out, visibleForm{Order: snap.Order, Form: snap.Form, CanFill: canFill})
	}
	respond.JSON(w, http.StatusOK, out)
}

// SetStatus handles PUT /work-reports/{reportID}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Reports.SetStatus(ctx, rep.ID, req.Status); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	updated, err := h.Reports.GetByID(ctx, rep.ID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request) (models.WorkReport, bool) {
	reportID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "reportID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid work report id")
		return models.WorkReport{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, err := h.Reports.GetByID(ctx, reportID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return models.WorkReport{}, false
	}
	if ok := h.authorize(w, r, rep); !ok {
		return models.WorkReport{}, false
	}
	return rep, true
}

// authorize enforces who may touch a report: a superadmin, the owning
// company's operators and staff, or the client behind the paired order.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, rep models.WorkReport) bool {
	switch {
	case authz.IsSuperAdmin(r):
		return true
	case authz.UserCompanyID(r) == rep.CompanyID:
		return true
	case authz.IsClient(r):
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		wo, err := h.Orders.GetByID(ctx, rep.WorkOrderID)
		_, userID, _ := authz.UserCtx(r)
		if err == nil && wo.ClientID == userID {
			return true
		}
	}
	respond.Message(w, http.StatusForbidden, "forbidden")
	return false
}
