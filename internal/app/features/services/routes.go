// internal/app/features/services/routes.go
package services

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Routes returns the /services subrouter: a public catalog for signed-in
// clients and an authoring surface for company operators.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Get("/catalog", h.Catalog)
	r.Get("/catalog/{serviceKey}", h.CatalogDetail)

	r.Group(func(r chi.Router) {
		// Authoring needs a company context, which superadmins lack.
		r.Use(sysauth.RequireRole(models.RoleCompany))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{serviceKey}", h.GetLatest)
		r.Put("/{serviceKey}", h.Update)
	})
	return r
}
