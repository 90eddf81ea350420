package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

// MarketStore keeps the latest known quote per symbol so valuation can reuse
// prices without hitting the upstream providers.
type MarketStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewMarketStore(db *surrealdb.DB, logger *common.Logger) *MarketStore {
	return &MarketStore{
		db:     db,
		logger: logger,
	}
}

func (s *MarketStore) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	q, err := surrealdb.Select[models.Quote](ctx, s.db, surrealmodels.NewRecordID("market_data", strings.ToUpper(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to select quote: %w", err)
	}
	if q == nil || q.Symbol == "" {
		return nil, nil
	}
	return q, nil
}

func (s *MarketStore) SaveQuote(ctx context.Context, q *models.Quote) error {
	sql := "UPSERT type::record('market_data', $id) CONTENT $quote"
	vars := map[string]any{"id": strings.ToUpper(q.Symbol), "quote": q}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save quote after retries: %w", err)
		}
	}
	return nil
}
