package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// RunMigrations applies the embedded migrations for driver through a goose provider.
func RunMigrations(ctx context.Context, db *gorm.DB, driver string) error {
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return err
	}
	dialect := goose.DialectPostgres
	if driver == DriverSQLite {
		dialect = goose.DialectSQLite3
	}

	migrations, err := fs.Sub(migrationFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}
	provider, err := goose.NewProvider(dialect, sqlDB, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	slog.Default().InfoContext(ctx, "database migrations started",
		"module", "database",
		"layer", "adapter",
		"operation", "run_migrations",
		"outcome", "start",
		"driver", driver,
	)
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		slog.Default().InfoContext(ctx, "migration applied",
			"module", "database",
			"layer", "adapter",
			"operation", "apply_migration",
			"outcome", "success",
			"migration", res.Source.Path,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	slog.Default().InfoContext(ctx, "database migrations completed",
		"module", "database",
		"layer", "adapter",
		"operation", "run_migrations",
		"outcome", "success",
		"migration_count", len(results),
	)
	return nil
}
