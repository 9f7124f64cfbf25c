// internal/app/features/companies/routes.go
package companies

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /companies subrouter. All routes require sign-in;
// per-company tenancy is enforced in the handlers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.With(sysauth.RequireRole(models.RoleSuperAdmin)).Get("/", h.List)

	r.Route("/{companyID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.With(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany)).Patch("/", h.Update)

		r.Route("/staff", func(r chi.Router) {
			r.Use(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany))
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
			r.Put("/{userID}/position", h.SetStaffPosition)
		})
	})
	return r
}
