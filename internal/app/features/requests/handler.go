// internal/app/features/requests/handler.go
package requests

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	requeststore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/requests"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/snapshot"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/workflow"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Requests  *requeststore.Store
	Services  *servicestore.Store
	Templates *templatestore.Store
	Engine    *workflow.Engine
	Log       *zap.Logger
}

func NewHandler(requests *requeststore.Store, services *servicestore.Store, templates *templatestore.Store, engine *workflow.Engine, log *zap.Logger) *Handler {
	return &Handler{Requests: requests, Services: services, Templates: templates, Engine: engine, Log: log}
}

type createRequestRequest struct {
	ServiceKey string `json:"service_key" validate:"required"`
	Note       string `json:"note" validate:"max=2000"`
}

// Create handles POST /requests: a client files a request against the
// published latest version of a service. The exact version id and the
// intake form shapes are frozen into the request at this moment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createRequestRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	svc, err := h.Services.LatestByKey(ctx, req.ServiceKey, true)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	intake := snapshot.BuildIntake(ctx, h.Templates, svc.ClientIntakeForms, h.Log)
	created, err := h.Requests.Create(ctx, models.ServiceRequest{
		CompanyID:   svc.CompanyID,
		ServiceID:   svc.ID,
		ClientID:    user.ID,
		Note:        req.Note,
		IntakeForms: intake,
	})
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.Log.Info("service request filed",
		zap.String("request_id", created.ID.Hex()),
		zap.String("service_key", svc.ServiceKey),
		zap.Int("service_version", svc.Version))
	respond.JSON(w, http.StatusCreated, created)
}

// List handles GET /requests. Clients see their own requests; company
// operators see their company's, optionally filtered by ?status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if authz.IsClient(r) {
		_, userID, _ := authz.UserCtx(r)
		list, err := h.Requests.ListByClient(ctx, userID)
		if err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
		return
	}

	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	list, err := h.Requests.ListByCompany(ctx, companyID, r.URL.Query().Get("status"))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /requests/{requestID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, req)
}

// Approve handles POST /requests/{requestID}/approve: flips the request
// and derives the work order and report.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	// Approval creates several documents; give it the long budget.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Engine.Approve(ctx, req.ID, user.ID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Reject handles POST /requests/{requestID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	decided, err := h.Engine.Reject(ctx, req.ID, user.ID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, decided)
}

// Delete handles DELETE /requests/{requestID} (superadmin only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "requestID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Requests.Delete(ctx, requestID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if n == 0 {
		respond.Message(w, http.StatusNotFound, "request not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadAuthorized loads the request from the path and enforces who may see
// it: the filing client, the receiving company, or a superadmin.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request) (models.ServiceRequest, bool) {
	requestID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "requestID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request id")
		return models.ServiceRequest{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	req, err := h.Requests.GetByID(ctx, requestID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return models.ServiceRequest{}, false
	}

	_, userID, _ := authz.UserCtx(r)
	switch {
	case authz.IsSuperAdmin(r):
	case authz.IsClient(r) && req.ClientID == userID:
	case authz.UserCompanyID(r) == req.CompanyID:
	default:
		respond.Message(w, http.StatusForbidden, "forbidden")
		return models.ServiceRequest{}, false
	}
	return req, true
}
