// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "github.com/Finatrades/finatradesgold-sub015/internal/api"
	"github.com/Finatrades/finatradesgold-sub015/internal/api/handler"
	"github.com/Finatrades/finatradesgold-sub015/internal/config"
	"github.com/Finatrades/finatradesgold-sub015/internal/pricing"
	"github.com/Finatrades/finatradesgold-sub015/internal/repository"
	"github.com/Finatrades/finatradesgold-sub015/internal/repository/postgres"
	"github.com/Finatrades/finatradesgold-sub015/internal/service"
	"github.com/Finatrades/finatradesgold-sub015/internal/util"
	"github.com/Finatrades/finatradesgold-sub015/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	BatchRepository      repository.BatchRepository
	LiveLedgerRepository repository.LiveLedgerRepository
	TransferRepository   repository.TransferRepository

	// Collaborators
	Oracle pricing.Oracle

	// Services
	LedgerService service.LedgerService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Repositories
	app.BatchRepository = postgres.NewBatchRepository(app.DB)
	app.LiveLedgerRepository = postgres.NewLiveLedgerRepository(app.DB)
	app.TransferRepository = postgres.NewTransferRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Price Oracle
	oracle, err := newOracle(cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to initialize price oracle: %w", err)
	}
	app.Oracle = oracle

	// 6. Initialize Services
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.BatchRepository,
		app.LiveLedgerRepository,
		app.TransferRepository,
		app.Oracle,
		db.BeginTx,
		db.BeginReadTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// newOracle builds the spot price source from configuration: an HTTP feed
// behind a short-lived cache when a feed URL is set, a static price otherwise.
func newOracle(cfg config.OracleConfig) (pricing.Oracle, error) {
	if cfg.FeedURL != "" {
		feed := pricing.NewFeedOracle(cfg.FeedURL, cfg.FeedTimeout)
		return pricing.NewCachedOracle(feed, cfg.CacheTTL), nil
	}
	return pricing.NewStaticOracle(cfg.StaticPriceUsd)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
