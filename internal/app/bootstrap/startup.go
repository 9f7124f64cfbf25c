// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// Startup runs one-time initialization after schema setup, before the
// HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.DBTimeouts)
	return ensureSuperAdmin(ctx, appCfg, deps, logger)
}

// ensureSuperAdmin creates the configured superadmin account if it does
// not exist yet. An existing account is left untouched, so rotating the
// configured password does not overwrite a live credential.
func ensureSuperAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail == "" || appCfg.SuperAdminPassword == "" {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	users := userstore.New(deps.MongoDatabase, logger)
	_, err := users.GetByEmail(opCtx, appCfg.SuperAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fault.ErrNotFound) {
		return err
	}

	hash, err := userstore.HashPassword(appCfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	created, err := users.Create(opCtx, models.User{
		FullName:     "Super Admin",
		Email:        appCfg.SuperAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			// Lost a race with a concurrent instance; account exists.
			return nil
		}
		return err
	}

	logger.Info("superadmin account created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("email", appCfg.SuperAdminEmail))
	return nil
}
