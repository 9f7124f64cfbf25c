// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/indexes"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
)

// EnsureSchema reconciles the collection indexes, including the unique
// (key, version) guards the append-only version stores depend on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ensureCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ensureCtx, deps.MongoDatabase); err != nil {
		logger.Error("index reconciliation failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
