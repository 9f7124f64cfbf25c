// internal/app/features/workorders/handler.go
package workorders

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/access"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/workflow"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Orders *orderstore.Store
	Users  *userstore.Store
	Engine *workflow.Engine
	Log    *zap.Logger
}

func NewHandler(orders *orderstore.Store, users *userstore.Store, engine *workflow.Engine, log *zap.Logger) *Handler {
	return &Handler{Orders: orders, Users: users, Engine: engine, Log: log}
}

type assignStaffRequest struct {
	StaffIDs []string `json:"staff_ids" validate:"required,dive,len=24"`
}

type setPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

// visibleForm is one snapshot entry the caller may see, annotated with
// whether they may also fill it.
type visibleForm struct {
	Order   int              `json:"order"`
	Form    models.FormShape `json:"form"`
	CanFill bool             `json:"can_fill"`
}

// List handles GET /work-orders. Staff see their assignments, clients the
// orders derived from their requests, operators their company's orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, userID, _ := authz.UserCtx(r)
	var (
		list []models.WorkOrder
		err  error
	)
	switch {
	case authz.IsStaff(r):
		list, err = h.Orders.ListByAssignedStaff(ctx, userID)
	case authz.IsClient(r):
		list, err = h.Orders.ListByClient(ctx, userID)
	default:
		companyID := authz.UserCompanyID(r)
		if companyID == primitive.NilObjectID && !authz.IsSuperAdmin(r) {
			respond.Message(w, http.StatusForbidden, "no company context")
			return
		}
		list, err = h.Orders.ListByCompany(ctx, companyID, r.URL.Query().Get("status"))
	}
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /work-orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, wo)
}

// Forms handles GET /work-orders/{orderID}/forms: the order's snapshot
// list filtered by the caller's view access, each entry annotated with
// fill access. Snapshots without access metadata are visible to company
// operators and superadmins only.
func (h *Handler) Forms(w http.ResponseWriter, r *http.Request) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	operator := authz.IsSuperAdmin(r) || authz.IsCompany(r)
	out := make([]visibleForm, 0, len(wo.WorkOrderForms))
	for _, snap := range wo.WorkOrderForms {
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

// AssignStaff handles PUT /work-orders/{orderID}/staff: replaces the
// assignment list. Every id must be an active staff member of the order's
// company.
func (h *Handler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	var req assignStaffRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	staffIDs := make([]primitive.ObjectID, 0, len(req.StaffIDs))
	for _, s := range req.StaffIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid staff id")
			return
		}
		u, err := h.Users.GetByID(ctx, id)
		if err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		if u.Role != models.RoleStaff || u.CompanyID == nil || *u.CompanyID != wo.CompanyID {
			respond.Message(w, http.StatusUnprocessableEntity, "staff member not in company")
			return
		}
		staffIDs = append(staffIDs, id)
	}

	if err := h.Orders.SetAssignedStaff(ctx, wo.ID, staffIDs); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	updated, err := h.Orders.GetByID(ctx, wo.ID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// SetPriority handles PUT /work-orders/{orderID}/priority.
func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	var req setPriorityRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Orders.SetPriority(ctx, wo.ID, req.Priority); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// MarkReady handles POST /work-orders/{orderID}/ready.
func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.MarkReady)
}

// Start handles POST /work-orders/{orderID}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Start)
}

// Complete handles POST /work-orders/{orderID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.Complete)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, primitive.ObjectID) error) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := fn(ctx, wo.ID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	updated, err := h.Orders.GetByID(ctx, wo.ID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /work-orders/{orderID}: soft delete, the document
// and its submissions stay for audit.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	wo, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Orders.SoftDelete(ctx, wo.ID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadAuthorized loads the order and enforces who may touch it: a
// superadmin, the owning company's users, the client it was derived for,
// or assigned staff.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request) (models.WorkOrder, bool) {
	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orderID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid work order id")
		return models.WorkOrder{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	wo, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return models.WorkOrder{}, false
	}

	_, userID, _ := authz.UserCtx(r)
	switch {
	case authz.IsSuperAdmin(r):
	case authz.IsClient(r) && wo.ClientID == userID:
	case authz.UserCompanyID(r) == wo.CompanyID:
	default:
		respond.Message(w, http.StatusForbidden, "forbidden")
		return models.WorkOrder{}, false
	}
	return wo, true
}
