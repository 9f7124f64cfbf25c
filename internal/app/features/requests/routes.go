// internal/app/features/requests/routes.go
package requests

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /requests subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.With(sysauth.RequireRole(models.RoleClient)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{requestID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany))
		r.Post("/{requestID}/approve", h.Approve)
		r.Post("/{requestID}/reject", h.Reject)
	})

	r.With(sysauth.RequireRole(models.RoleSuperAdmin)).Delete("/{requestID}", h.Delete)
	return r
}
