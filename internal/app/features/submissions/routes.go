// internal/app/features/submissions/routes.go
package submissions

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
)

// Routes returns the /submissions subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Post("/", h.Submit)
	r.Get("/", h.ListByOwner)
	return r
}
