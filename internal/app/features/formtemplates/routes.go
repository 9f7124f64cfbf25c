// internal/app/features/formtemplates/routes.go
package formtemplates

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /form-templates subrouter. Authoring is restricted to
// company operators; exact-version reads are open to any signed-in user
// whose tenancy checks out, since staff and clients render snapshots from
// them.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Get("/versions/{templateID}", h.GetVersion)

	r.Group(func(r chi.Router) {
		// Authoring needs a company context, which superadmins lack.
		r.Use(sysauth.RequireRole(models.RoleCompany))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{formKey}", h.GetLatest)
		r.Put("/{formKey}", h.Update)
		r.Get("/{formKey}/versions", h.History)
	})
	return r
}
