// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration, loaded in LoadConfig.
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging, CORS); everything specific to this application lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Database operation deadline overrides; zero values keep the
	// built-in defaults.
	DBTimeouts timeouts.Config

	// SuperAdmin bootstrap: when both are set, Startup ensures the
	// account exists.
	SuperAdminEmail    string
	SuperAdminPassword string
}
