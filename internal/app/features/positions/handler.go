// internal/app/features/positions/handler.go
package positions

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	positionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/positions"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/authz"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Positions *positionstore.Store
	Log       *zap.Logger
}

func NewHandler(positions *positionstore.Store, log *zap.Logger) *Handler {
	return &Handler{Positions: positions, Log: log}
}

type createPositionRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

type updatePositionRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

// List handles GET /positions for the caller's company.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Positions.ListByCompany(ctx, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Create handles POST /positions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	if companyID == primitive.NilObjectID {
		respond.Message(w, http.StatusForbidden, "no company context")
		return
	}
	var req createPositionRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Positions.Create(ctx, models.Position{
		CompanyID:   companyID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, positionstore.ErrDuplicatePositionName) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

// Update handles PATCH /positions/{positionID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	positionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "positionID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid position id")
		return
	}
	var req updatePositionRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Positions.GetForCompany(ctx, positionID, companyID); err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if err := h.Positions.UpdateInfo(ctx, positionID, req.Name, req.Description); err != nil {
		if errors.Is(err, positionstore.ErrDuplicatePositionName) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}
	p, err := h.Positions.GetByID(ctx, positionID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /positions/{positionID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID := authz.UserCompanyID(r)
	positionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "positionID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid position id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Positions.Delete(ctx, positionID, companyID)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if n == 0 {
		respond.Message(w, http.StatusNotFound, "position not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
