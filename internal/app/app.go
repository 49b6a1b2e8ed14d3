package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/templui/stash/internal/config"
	"github.com/templui/stash/internal/db"
	"github.com/templui/stash/internal/metrics"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/seed"
	"github.com/templui/stash/internal/service"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Store         *repository.Store
	Metrics       *metrics.Metrics
	LedgerService *service.LedgerService
	AuthService   *service.AuthService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Open(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.Migrate(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	resolver := service.NewGoogleIdentityResolver(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL())
	a := Build(cfg, database, resolver)

	if cfg.SeedDemoData {
		_, err = seed.Run(ctx, a.Store, a.LedgerService)
		if err != nil {
			slog.Error("demo seeding failed", "error", err)
		}
	}

	return a, nil
}

// Build wires services around an already migrated database.
func Build(cfg *config.Config, database *sqlx.DB, resolver service.IdentityResolver) *App {
	m := metrics.New()
	store := repository.NewStore(database)

	ledgerService := service.NewLedgerService(store, m, service.LedgerConfig{
		FeedLimit:               cfg.FeedLimit,
		LeaderboardLimit:        cfg.LeaderboardLimit,
		DashboardSacrificeLimit: cfg.DashboardSacrificeLimit,
	})
	authService := service.NewAuthService(
		store.Accounts,
		resolver,
		m,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)

	return &App{
		Cfg:           cfg,
		DB:            database,
		Store:         store,
		Metrics:       m,
		LedgerService: ledgerService,
		AuthService:   authService,
	}
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
