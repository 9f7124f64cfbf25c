// internal/app/features/positions/routes.go
package positions

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /positions subrouter, scoped to the caller's company.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)
	// Positions only exist inside a company; superadmins have no company
	// context to author in.
	r.Use(sysauth.RequireRole(models.RoleCompany))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{positionID}", h.Update)
	r.Delete("/{positionID}", h.Delete)
	return r
}
