// Package interfaces defines service contracts for StockBot
package interfaces

import (
	"context"

	"github.com/djratlif/StockBot/internal/models"
)

// QuoteClient fetches quotes and daily price history from one upstream source.
// Both the primary (Alpha Vantage) and fallback (Yahoo) clients implement it.
type QuoteClient interface {
	// GetQuote fetches the current quote for a symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetDailyHistory fetches up to days of daily bars for a symbol.
	// Ordering and deduplication are the caller's concern.
	GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.PriceBar, error)

	// Name identifies the source in logs and quote records.
	Name() string
}

// InferenceClient issues one text-generation call against the model backend.
type InferenceClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
