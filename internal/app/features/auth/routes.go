// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
)

// Routes returns the /auth subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register/company", h.RegisterCompany)
	r.Post("/register/client", h.RegisterClient)
	r.Post("/login", h.Login)
	r.With(sysauth.RequireSignedIn).Get("/me", h.Me)
	return r
}
