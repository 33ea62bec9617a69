package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"staff-api/internal/auth"
	"staff-api/internal/db"
	"staff-api/internal/employee"
	"staff-api/internal/maintenance"
	"staff-api/internal/media"
	"staff-api/internal/observability"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Config  Config
	Logger  *observability.Logger
	Handler http.Handler
	Close   func() error
}

// Build wires configuration, storage and routes. Both the long-running server
// and the serverless entrypoint share it.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.Release); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	ctx := context.Background()
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	authRepo := auth.NewRepository(database)
	authService := auth.NewService(authRepo, cfg.JWTSecret)
	authService.WithSecurityConfig(cfg.LoginMaxAttempts, cfg.LoginLockDuration, cfg.TokenTTL)

	if err := authService.BootstrapFromEnv(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminRole); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	// Document uploads stay disabled rather than failing startup when
	// Cloudinary is not configured.
	var uploader employee.Uploader
	if cfg.CloudinaryURL != "" {
		cloudinaryClient, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		uploader = cloudinaryClient
	} else {
		logger.Warn("document_uploads_disabled", map[string]any{"reason": "CLOUDINARY_URL not set"})
	}

	handler := newRouter(routerDeps{
		config:      cfg,
		logger:      logger,
		database:    database,
		authService: authService,
		employees:   employee.NewService(employee.NewRepository(database), uploader),
		cleanup:     maintenance.NewCleanupHandler(authRepo, logger, cfg.CronSecret, cfg.CleanupBatchSize),
	})

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}
