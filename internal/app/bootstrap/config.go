// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
)

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for the work order portal.
// Loaded via WAFFLE's config system from config files, environment
// variables (WOP_MONGO_URI, WOP_JWT_SECRET, ...), or command-line flags.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "workorder_portal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Bearer token signing key (must be strong in production)"},
	{Name: "token_ttl", Default: "24h", Desc: "Bearer token lifetime (e.g., 24h, 90m)"},

	{Name: "db_timeout_ping", Default: "", Desc: "Override for health-check deadline (e.g., 2s)"},
	{Name: "db_timeout_short", Default: "", Desc: "Override for single-document read deadline"},
	{Name: "db_timeout_medium", Default: "", Desc: "Override for list/write deadline"},
	{Name: "db_timeout_long", Default: "", Desc: "Override for multi-collection write deadline"},

	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin account ensured on startup"},
	{Name: "superadmin_password", Default: "", Desc: "Password for the superadmin account (only used when creating it)"},
}

// LoadConfig loads WAFFLE core config and app-specific config. Precedence
// is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "WOP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		TokenTTL:  appValues.Duration("token_ttl", 24*time.Hour),

		DBTimeouts: timeouts.Config{
			Ping:   appValues.Duration("db_timeout_ping", 0),
			Short:  appValues.Duration("db_timeout_short", 0),
			Medium: appValues.Duration("db_timeout_medium", 0),
			Long:   appValues.Duration("db_timeout_long", 0),
		},

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig enforces config invariants before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return fmt.Errorf("jwt_secret must be changed from the development default in production")
	}
	if appCfg.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	return nil
}
