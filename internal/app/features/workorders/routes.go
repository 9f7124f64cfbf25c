// internal/app/features/workorders/routes.go
package workorders

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /work-orders subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Get("/{orderID}/forms", h.Forms)

	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany))
		r.Put("/{orderID}/staff", h.AssignStaff)
		r.Put("/{orderID}/priority", h.SetPriority)
		r.Post("/{orderID}/ready", h.MarkReady)
		r.Delete("/{orderID}", h.Delete)
	})

	// Staff move their own orders through the working states.
	r.Group(func(r chi.Router) {
		r.Use(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany, models.RoleStaff))
		r.Post("/{orderID}/start", h.Start)
		r.Post("/{orderID}/complete", h.Complete)
	})
	return r
}
