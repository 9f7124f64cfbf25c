// internal/app/features/submissions/handler.go
package submissions

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	requeststore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/requests"
	submissionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/submissions"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	reportstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workreports"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/access"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Submissions *submissionstore.Store
	Requests    *requeststore.Store
	Orders      *orderstore.Store
	Reports     *reportstore.Store
	Log         *zap.Logger
}

func NewHandler(submissions *submissionstore.Store, requests *requeststore.Store, orders *orderstore.Store, reports *reportstore.Store, log *zap.Logger) *Handler {
	return &Handler{Submissions: submissions, Requests: requests, Orders: orders, Reports: reports, Log: log}
}

type answerPayload struct {
	Order int `json:"order" validate:"required,min=1"`
	Value any `json:"value"`
}

type submitRequest struct {
	OwnerID        string          `json:"owner_id" validate:"required,len=24"`
	SubmissionType string          `json:"submission_type" validate:"required,oneof=intake work_order work_report"`
	FormID         string          `json:"form_id" validate:"required,len=24"`
	FieldsData     []answerPayload `json:"fields_data" validate:"required,dive"`
}

// Submit handles POST /submissions: appends one answer set to the ledger.
// Fill access is enforced against the owner's snapshot entry for the form
// before the answers are validated and stored.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req submitRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ownerID, err := primitive.ObjectIDFromHex(req.OwnerID)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid owner_id")
		return
	}
	formID, err := primitive.ObjectIDFromHex(req.FormID)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid form_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.mayFill(ctx, w, r, user, req.SubmissionType, ownerID, formID) {
		return
	}

	answers := make([]models.FieldAnswer, 0, len(req.FieldsData))
	for _, a := range req.FieldsData {
		answers = append(answers, models.FieldAnswer{Order: a.Order, Value: a.Value})
	}

	created, err := h.Submissions.Submit(ctx, models.FormSubmission{
		OwnerID:        ownerID,
		SubmissionType: req.SubmissionType,
		FormID:         formID,
		SubmittedBy:    user.ID,
		FieldsData:     answers,
	})
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// ListByOwner handles GET /submissions?owner_id=...&type=...
func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("owner_id"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid owner_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Submissions.ListByOwner(ctx, ownerID, r.URL.Query().Get("type"))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// mayFill resolves the owner document for the submission type and checks
// the caller may fill the referenced form. Operators of the owning company
// and superadmins always may; staff and clients go through the snapshot's
// access lists (intake snapshots carry none, so they are client-only).
func (h *Handler) mayFill(ctx context.Context, w http.ResponseWriter, r *http.Request, user *auth.TokenUser, submissionType string, ownerID, formID primitive.ObjectID) bool {
	deny := func(status int, msg string) bool {
		respond.Message(w, status, msg)
		return false
	}

	switch submissionType {
	case models.SubmissionIntake:
		req, err := h.Requests.GetByID(ctx, ownerID)
		if err != nil {
			respond.Err(w, h.Log, err)
			return false
		}
		if authz.IsSuperAdmin(r) || authz.UserCompanyID(r) == req.CompanyID {
			return true
		}
		if !authz.IsClient(r) || req.ClientID != user.ID {
			return deny(http.StatusForbidden, "forbidden")
		}
		if !snapshotHasForm(req.IntakeForms, formID) {
			return deny(http.StatusUnprocessableEntity, "form is not part of this request")
		}
		return true

	case models.SubmissionWorkOrder:
		wo, err := h.Orders.GetByID(ctx, ownerID)
		if err != nil {
			respond.Err(w, h.Log, err)
			return false
		}
		return h.checkSnapshotFill(w, r, user, wo.CompanyID, wo.WorkOrderForms, formID)

	case models.SubmissionWorkReport:
		rep, err := h.Reports.GetByID(ctx, ownerID)
		if err != nil {
			respond.Err(w, h.Log, err)
			return false
		}
		return h.checkSnapshotFill(w, r, user, rep.CompanyID, rep.ReportForms, formID)
	}
	return deny(http.StatusBadRequest, "unknown submission type")
}

func (h *Handler) checkSnapshotFill(w http.ResponseWriter, r *http.Request, user *auth.TokenUser, companyID primitive.ObjectID, snaps []models.FormSnapshot, formID primitive.ObjectID) bool {
	var entry *models.FormSnapshot
	for i := range snaps {
		if snaps[i].Form.FormID == formID {
			entry = &snaps[i]
			break
		}
	}
	if entry == nil {
		respond.Message(w, http.StatusUnprocessableEntity, "form is not part of this document")
		return false
	}

	operator := authz.IsSuperAdmin(r) ||
		(authz.IsCompany(r) && authz.UserCompanyID(r) == companyID)
	if operator {
		return true
	}
	if authz.UserCompanyID(r) != companyID {
		respond.Message(w, http.StatusForbidden, "forbidden")
		return false
	}
	if !access.CanFill(entry.Access, user.Role, user.PositionID) {
		respond.Message(w, http.StatusForbidden, "fill access denied")
		return false
	}
	return true
}

func snapshotHasForm(snaps []models.FormSnapshot, formID primitive.ObjectID) bool {
	for _, s := range snaps {
		if s.Form.FormID == formID {
			return true
		}
	}
	return false
}
