package interfaces

import (
	"context"
	"time"

	"github.com/djratlif/StockBot/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	PortfolioStore() PortfolioStore
	TradeStore() TradeStore
	SnapshotStore() SnapshotStore
	MarketStore() MarketStore
	InternalStore() InternalStore

	// Lifecycle
	Close() error
}

// PortfolioStore persists the singleton portfolio.
type PortfolioStore interface {
	// Get returns the stored portfolio, or nil when none exists yet.
	Get(ctx context.Context) (*models.Portfolio, error)

	// Save upserts the portfolio.
	Save(ctx context.Context, p *models.Portfolio) error

	// SaveWithTrade upserts the portfolio and appends the trade in a single
	// transaction. Either both land or neither does.
	SaveWithTrade(ctx context.Context, p *models.Portfolio, t *models.Trade) error
}

// TradeStore persists the append-only trade history.
type TradeStore interface {
	Append(ctx context.Context, t *models.Trade) error
	List(ctx context.Context, limit int) ([]*models.Trade, error)
	All(ctx context.Context) ([]*models.Trade, error)
}

// SnapshotStore persists valuation snapshots keyed by timestamp.
type SnapshotStore interface {
	// Get returns the snapshot at exactly ts, or nil when absent.
	Get(ctx context.Context, ts time.Time) (*models.PortfolioSnapshot, error)
	Save(ctx context.Context, s *models.PortfolioSnapshot) error

	// ListSince returns snapshots with timestamp >= from, oldest first.
	ListSince(ctx context.Context, from time.Time) ([]models.PortfolioSnapshot, error)
}

// MarketStore caches the latest known quote per symbol for valuation reuse.
type MarketStore interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	SaveQuote(ctx context.Context, q *models.Quote) error
}

// InternalStore manages system-level key-value state (API keys, flags).
type InternalStore interface {
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error
}
