// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// UserCtx returns the user's role (lowercased), Mongo ObjectID, and a
// found flag. ok=true guarantees an authenticated user with a valid id.
func UserCtx(r *http.Request) (role string, userID primitive.ObjectID, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", primitive.NilObjectID, false
	}
	return strings.ToLower(u.Role), u.ID, true
}

// IsSuperAdmin reports whether the current request's user is the app-wide
// administrator.
func IsSuperAdmin(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperAdmin
}

// IsCompany reports whether the current request's user operates a company.
// Superadmins pass every company-side check.
func IsCompany(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && (role == models.RoleCompany || role == models.RoleSuperAdmin)
}

// IsStaff reports whether the current request's user is company staff.
func IsStaff(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == models.RoleStaff
}

// IsClient reports whether the current request's user is a client.
func IsClient(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == models.RoleClient
}

// UserCompanyID returns the current user's company id, or NilObjectID when
// the user is unauthenticated or has no company.
func UserCompanyID(r *http.Request) primitive.ObjectID {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyID == nil {
		return primitive.NilObjectID
	}
	return *u.CompanyID
}

// CanAccessCompany reports whether the current user may touch documents
// owned by the given company. Superadmins may touch everything; everyone
// else only their own company.
func CanAccessCompany(r *http.Request, companyID primitive.ObjectID) bool {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if strings.ToLower(u.Role) == models.RoleSuperAdmin {
		return true
	}
	return u.CompanyID != nil && *u.CompanyID == companyID
}
