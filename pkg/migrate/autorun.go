package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/partshop-backend/pkg/config"
	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
)

// MaybeRunDev migrates the schema on startup when running in dev with
// AutoMigrate on. Postgres gets the embedded goose migrations; SQLite is built
// from the models because the SQL files are Postgres-only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.Driver == db.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema from models")
		if err := client.AutoMigrate(ctx, models.All()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite schema: %w", err)
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	applied, err := Up(ctx, sqlDB, Embedded())
	if err != nil {
		return fmt.Errorf("running embedded migrations: %w", err)
	}
	for _, r := range applied {
		logg.Info(logg.WithField(ctx, "migration", r.Path), "migration.applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "dev migrations completed")
	return nil
}
