// Package app wires configuration, storage, clients, and services into a
// running StockBot instance.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/djratlif/StockBot/internal/clients/alphavantage"
	"github.com/djratlif/StockBot/internal/clients/gemini"
	"github.com/djratlif/StockBot/internal/clients/yahoo"
	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
	"github.com/djratlif/StockBot/internal/services/advisor"
	"github.com/djratlif/StockBot/internal/services/ledger"
	"github.com/djratlif/StockBot/internal/services/market"
	"github.com/djratlif/StockBot/internal/services/trading"
	"github.com/djratlif/StockBot/internal/storage/surrealdb"
)

// App holds all initialized services and clients. It is the shared core used
// by cmd/stockbot-server.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Storage        interfaces.StorageManager
	MarketService  interfaces.MarketService
	AdvisorService interfaces.AdvisorService
	LedgerService  interfaces.LedgerService
	Executor       interfaces.TradeExecutor
	StartupTime    time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, STOCKBOT_CONFIG, then binary
	// dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("STOCKBOT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockbot.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockbot.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	kvStore := storageManager.InternalStore()

	avKey, err := common.ResolveAPIKey(ctx, kvStore, "alphavantage_api_key", config.Clients.AlphaVantage.APIKey)
	if err != nil {
		logger.Warn().Msg("Alpha Vantage API key not configured - quotes will rely on the fallback source")
	}

	geminiKey, err := common.ResolveAPIKey(ctx, kvStore, "gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - the bot will hold on every cycle")
	}

	// Initialize API clients
	var primary interfaces.QuoteClient
	if avKey != "" {
		primary = alphavantage.NewClient(avKey,
			alphavantage.WithLogger(logger),
			alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
			alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
			alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		)
	}
	fallback := yahoo.NewClient(yahoo.WithLogger(logger))
	if primary == nil {
		primary = fallback
		fallback = nil
	}

	var inference interfaces.InferenceClient
	if geminiKey != "" {
		geminiClient, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			inference = geminiClient
		}
	}

	// Initialize services
	profile := config.Trading.RiskProfile()
	window := config.Trading.TradingWindow()

	marketService := market.NewService(primary, fallback, storageManager.MarketStore(), logger)
	ledgerService := ledger.NewService(storageManager, profile, window, logger)

	var advisorService interfaces.AdvisorService
	if inference != nil {
		advisorService = advisor.NewService(inference, logger,
			advisor.WithTimeout(config.Clients.Gemini.GetTimeout()),
			advisor.WithConfidenceFloor(profile.EffectiveConfidenceFloor()),
		)
	} else {
		advisorService = unavailableAdvisor{}
	}

	executor := trading.NewExecutor(
		trading.NewScheduleGate(window),
		trading.NewRiskPolicy(profile),
		marketService,
		advisorService,
		ledgerService,
		logger,
	)

	if _, err := ledgerService.Initialize(ctx, config.Trading.InitialBalance); err != nil {
		return nil, fmt.Errorf("failed to initialize portfolio: %w", err)
	}

	a := &App{
		Config:         config,
		Logger:         logger,
		Storage:        storageManager,
		MarketService:  marketService,
		AdvisorService: advisorService,
		LedgerService:  ledgerService,
		Executor:       executor,
		StartupTime:    startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// unavailableAdvisor stands in when no inference backend is configured.
// Every cycle holds.
type unavailableAdvisor struct{}

func (unavailableAdvisor) Recommend(ctx context.Context, symbol string, quote *models.Quote, history []models.PriceBar, portfolio *models.Portfolio) (*models.Recommendation, error) {
	return nil, fmt.Errorf("%w: no inference backend configured", models.ErrAdvisorUnavailable)
}

// Close releases all resources held by the App.
// Shutdown order: cancel the scheduler, then close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
