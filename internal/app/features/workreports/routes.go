// internal/app/features/workreports/routes.go
package workreports

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /work-reports subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.With(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany)).Get("/", h.List)
	r.Get("/by-order/{orderID}", h.GetByOrder)
	r.Get("/{reportID}", h.Get)
	r.Get("/{reportID}/forms", h.Forms)
	r.With(sysauth.RequireRole(models.RoleSuperAdmin, models.RoleCompany, models.RoleStaff)).
		Put("/{reportID}/status", h.SetStatus)
	return r
}
