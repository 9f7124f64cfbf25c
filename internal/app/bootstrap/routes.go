// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/auth"
	companiesfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/companies"
	templatesfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/formtemplates"
	healthfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/health"
	positionsfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/positions"
	requestsfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/requests"
	servicesfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/services"
	submissionsfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/submissions"
	workordersfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/workorders"
	workreportsfeature "github.com/NandaFebian/workorder-portal-sub000/internal/app/features/workreports"
	companystore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/companies"
	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	positionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/positions"
	requeststore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/requests"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	submissionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/submissions"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	reportstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workreports"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/workflow"
)

// BuildHandler constructs the root HTTP handler. WAFFLE calls this after
// configuration, DB connection, schema setup, and Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores.
	companies := companystore.New(db)
	users := userstore.New(db, logger)
	positions := positionstore.New(db)
	templates := templatestore.New(db)
	services := servicestore.New(db)
	requests := requeststore.New(db)
	orders := orderstore.New(db)
	reports := reportstore.New(db)
	submissions := submissionstore.New(db, templates)

	engine := workflow.New(deps.MongoClient, requests, services, templates, orders, reports, submissions, logger)

	// Bearer tokens carry the user id; the user store refreshes role and
	// status on every request so revocations take effect immediately.
	tokens := auth.NewTokenManager(appCfg.JWTSecret, appCfg.TokenTTL, users, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(tokens.LoadTokenUser)

	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Mount("/auth", authfeature.Routes(authfeature.NewHandler(users, companies, tokens, logger)))
	r.Mount("/companies", companiesfeature.Routes(companiesfeature.NewHandler(companies, users, positions, logger)))
	r.Mount("/positions", positionsfeature.Routes(positionsfeature.NewHandler(positions, logger)))
	r.Mount("/form-templates", templatesfeature.Routes(templatesfeature.NewHandler(templates, logger)))
	r.Mount("/services", servicesfeature.Routes(servicesfeature.NewHandler(services, templates, logger)))
	r.Mount("/requests", requestsfeature.Routes(requestsfeature.NewHandler(requests, services, templates, engine, logger)))
	r.Mount("/work-orders", workordersfeature.Routes(workordersfeature.NewHandler(orders, users, engine, logger)))
	r.Mount("/work-reports", workreportsfeature.Routes(workreportsfeature.NewHandler(reports, orders, logger)))
	r.Mount("/submissions", submissionsfeature.Routes(submissionsfeature.NewHandler(submissions, requests, orders, reports, logger)))

	return r, nil
}
