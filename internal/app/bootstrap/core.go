package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	cacheadapter "github.com/bps3275/sinora/internal/adapters/cache"
	"github.com/bps3275/sinora/internal/adapters/database"
	"github.com/bps3275/sinora/internal/adapters/security"
	"github.com/bps3275/sinora/internal/adapters/spreadsheet"
	"github.com/bps3275/sinora/internal/application"
)

// Core is the service graph every entrypoint shares.
type Core struct {
	Config  Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Repos   database.Repositories
	Service *application.Service

	redis *redis.Client
}

// CoreOptions selects the optional dependencies an entrypoint needs.
type CoreOptions struct {
	// RequireRedis fails startup when no redis URL is configured.
	RequireRedis bool
	// SkipRedis never connects, even when a URL is configured.
	SkipRedis bool
}

// NewLogger builds the JSON logger and installs it as the slog default.
func NewLogger(serviceID string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", serviceID)
	slog.SetDefault(logger)
	return logger
}

// OpenCore connects the database, applies migrations and wires the application service.
func OpenCore(ctx context.Context, cfg Config, logger *slog.Logger, opts CoreOptions) (*Core, error) {
	db, err := database.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.RunMigrations(ctx, db, cfg.DatabaseDriver); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var redisClient *redis.Client
	switch {
	case opts.SkipRedis:
	case cfg.RedisURL != "":
		redisClient, err = cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	case opts.RequireRedis:
		_ = database.Close(db)
		return nil, errors.New("missing REDIS_URL")
	}

	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			closeAll(db, redisClient)
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime", "module", "bootstrap", "layer", "app")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			closeAll(db, redisClient)
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	repos := database.NewRepositories(db, cfg.DatabaseDriver)
	deps := application.Dependencies{
		Config:      cfg.ApplicationConfig(),
		UnitOfWork:  repos.UnitOfWork,
		Users:       repos.Users,
		Sessions:    repos.Sessions,
		Mitra:       repos.Mitra,
		Kegiatan:    repos.Kegiatan,
		Honor:       repos.Honor,
		Laporan:     repos.Laporan,
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: tokenSigner,
		Sheets:      spreadsheet.NewMitraReader(),
		Reports:     spreadsheet.NewReportWriter(),
	}
	if redisClient != nil {
		deps.Lockouts = cacheadapter.NewRedisLockoutStore(redisClient)
		deps.Revocations = cacheadapter.NewRedisSessionRevocationStore(redisClient)
		deps.ResetTokens = cacheadapter.NewRedisResetTokenStore(redisClient)
	}

	return &Core{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Repos:   repos,
		Service: application.NewService(deps),
		redis:   redisClient,
	}, nil
}

// Ready pings the database and, when connected, redis.
func (c *Core) Ready(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (c *Core) Close() {
	closeAll(c.DB, c.redis)
}

func closeAll(db *gorm.DB, redisClient *redis.Client) {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
