// internal/app/features/auth/handler.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/features/shared/respond"
	companystore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/companies"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Handler struct {
	Users     *userstore.Store
	Companies *companystore.Store
	Tokens    *sysauth.TokenManager
	Log       *zap.Logger
}

func NewHandler(users *userstore.Store, companies *companystore.Store, tokens *sysauth.TokenManager, log *zap.Logger) *Handler {
	return &Handler{Users: users, Companies: companies, Tokens: tokens, Log: log}
}

// RegisterCompany creates a company plus its operator account in one call
// and signs the operator in.
func (h *Handler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req registerCompanyRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	company, err := h.Companies.Create(ctx, models.Company{
		Name:         req.CompanyName,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		if errors.Is(err, companystore.ErrDuplicateCompanyName) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	hash, err := userstore.HashPassword(req.Password)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	user, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleCompany,
		CompanyID:    &company.ID,
	})
	if err != nil {
		// Do not leave an operator-less company behind.
		if _, derr := h.Companies.Delete(ctx, company.ID); derr != nil {
			h.Log.Error("cleanup company after user create failure", zap.Error(derr))
		}
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	token, err := h.Tokens.Issue(tokenUser(user))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.Log.Info("company registered",
		zap.String("company_id", company.ID.Hex()),
		zap.String("user_id", user.ID.Hex()))
	respond.JSON(w, http.StatusCreated, registerCompanyResponse{Token: token, User: user, Company: company})
}

// RegisterClient creates a client account and signs it in.
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req registerClientRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hash, err := userstore.HashPassword(req.Password)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	user, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleClient,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	token, err := h.Tokens.Issue(tokenUser(user))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, loginResponse{Token: token, User: user})
}

// Login authenticates by email+password and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !respond.DecodeValid(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) || errors.Is(err, userstore.ErrAccountSuspended) {
			respond.Message(w, http.StatusUnauthorized, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	token, err := h.Tokens.Issue(tokenUser(user))
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me returns the authenticated user's token view.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func tokenUser(u models.User) *sysauth.TokenUser {
	return &sysauth.TokenUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       u.Role,
		CompanyID:  u.CompanyID,
		PositionID: u.PositionID,
	}
}
