// internal/app/features/companies/handler.go
package companies

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	companystore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/companies"
	positionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/positions"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Companies *companystore.Store
	Users     *userstore.Store
	Positions *positionstore.Store
	Log       *zap.Logger
}

func NewHandler(companies *companystore.Store, users *userstore.Store, positions *positionstore.Store, log *zap.Logger) *Handler {
	return &Handler{Companies: companies, Users: users, Positions: positions, Log: log}
}

type updateCompanyRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=120"`
	Address string `json:"address" validate:"max=300"`
	Phone   string `json:"phone" validate:"max=40"`
}

type createStaffRequest struct {
	FullName   string `json:"full_name" validate:"required,min=2,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	PositionID string `json:"position_id" validate:"omitempty,len=24"`
}

type setPositionRequest struct {
	PositionID string `json:"position_id" validate:"omitempty,len=24"`
}

// List handles GET /companies (superadmin only).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Companies.List(ctx)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /companies/{companyID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	co, err := h.Companies.GetByID(ctx, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, co)
}

// Update handles PATCH /companies/{companyID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromPath(w, r)
	if !ok {
		return
	}
	var req updateCompanyRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Companies.UpdateInfo(ctx, companyID, req.Name, req.Address, req.Phone); err != nil {
		if errors.Is(err, companystore.ErrDuplicateCompanyName) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	co, err := h.Companies.GetByID(ctx, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, co)
}

// ListStaff handles GET /companies/{companyID}/staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	staff, err := h.Users.ListByCompany(ctx, companyID, models.RoleStaff)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, staff)
}

// CreateStaff handles POST /companies/{companyID}/staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromPath(w, r)
	if !ok {
		return
	}
	var req createStaffRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var positionID *primitive.ObjectID
	if req.PositionID != "" {
		pid, err := primitive.ObjectIDFromHex(req.PositionID)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid position_id")
			return
		}
		// The position must belong to the same company.
		if _, err := h.Positions.GetForCompany(ctx, pid, companyID); err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		positionID = &pid
	}

	hash, err := userstore.HashPassword(req.Password)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	staff, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleStaff,
		CompanyID:    &companyID,
		PositionID:   positionID,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, staff)
}

// SetStaffPosition handles PUT /companies/{companyID}/staff/{userID}/position.
func (h *Handler) SetStaffPosition(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyFromPath(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req setPositionRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	staff, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if staff.Role != models.RoleStaff || staff.CompanyID == nil || *staff.CompanyID != companyID {
		respond.Message(w, http.StatusNotFound, "staff member not found in company")
		return
	}

	var positionID *primitive.ObjectID
	if req.PositionID != "" {
		pid, err := primitive.ObjectIDFromHex(req.PositionID)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid position_id")
			return
		}
		if _, err := h.Positions.GetForCompany(ctx, pid, companyID); err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		positionID = &pid
	}

	if err := h.Users.SetPosition(ctx, userID, positionID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// companyFromPath parses {companyID} and enforces tenant access: a
// superadmin reaches any company, everyone else only their own.
func (h *Handler) companyFromPath(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	companyID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "companyID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid company id")
		return primitive.NilObjectID, false
	}
	if !authz.CanAccessCompany(r, companyID) {
		respond.Message(w, http.StatusForbidden, "forbidden")
		return primitive.NilObjectID, false
	}
	return companyID, true
}
