package interfaces

import (
	"context"
	"time"

	"github.com/djratlif/StockBot/internal/models"
)

// MarketService provides validated market data with fallback, caching, and
// bounded retry. All failures surface as models.ErrDataUnavailable.
type MarketService interface {
	// GetQuote returns the current price for a symbol. Never returns a zero
	// price: a cycle that cannot obtain a quote must be skipped.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistory returns daily bars for the trailing lookback window, oldest
	// first, at most one bar per calendar day (latest wins on duplicates).
	GetHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.PriceBar, error)
}

// AdvisorService converts market context into a structured recommendation.
type AdvisorService interface {
	// Recommend issues one bounded inference call. Any failure, timeout, or
	// unparseable response returns models.ErrAdvisorUnavailable; confidence
	// below the configured floor downgrades the action to HOLD.
	Recommend(ctx context.Context, symbol string, quote *models.Quote, history []models.PriceBar, portfolio *models.Portfolio) (*models.Recommendation, error)
}

// TradeExecutor runs decision cycles.
type TradeExecutor interface {
	// RunCycle executes one full decision cycle for one symbol:
	// gate -> data -> advise -> risk -> commit.
	RunCycle(ctx context.Context, symbol string) (*models.CycleResult, error)
}

// LedgerService owns the authoritative portfolio state. CommitTrade is the
// only mutation entry point; all reads observe fully committed state.
type LedgerService interface {
	// Initialize creates the singleton portfolio if it does not exist yet and
	// returns it.
	Initialize(ctx context.Context, initialBalance float64) (*models.Portfolio, error)

	// Portfolio returns a copy of the current committed portfolio.
	Portfolio(ctx context.Context) (*models.Portfolio, error)

	// CommitTrade atomically applies an executed trade: cash, holdings, daily
	// count, and the trade record move together or not at all. It re-validates
	// feasibility under the commit lock and returns *models.RiskDeniedError
	// when a concurrent commit invalidated the cycle's risk check.
	CommitTrade(ctx context.Context, trade *models.Trade) (*models.Portfolio, error)

	// RecordRejectedTrade appends a REJECTED trade for audit without touching
	// portfolio state.
	RecordRejectedTrade(ctx context.Context, trade *models.Trade) error

	// UpdateHoldingPrices refreshes last known prices on held positions so
	// valuation reflects current market rather than the last trade price.
	UpdateHoldingPrices(ctx context.Context, quotes map[string]*models.Quote) error

	// Snapshot materializes a valuation snapshot at now. Idempotent per
	// timestamp: a repeated call returns the stored snapshot.
	Snapshot(ctx context.Context, now time.Time) (*models.PortfolioSnapshot, error)

	// ChartData returns snapshots within the trailing window, oldest first.
	ChartData(ctx context.Context, days int) ([]models.PortfolioSnapshot, error)

	// Trades returns the newest trades (executed and rejected), newest first.
	Trades(ctx context.Context, limit int) ([]*models.Trade, error)

	// Stats summarizes trade history.
	Stats(ctx context.Context) (*models.TradingStats, error)
}
