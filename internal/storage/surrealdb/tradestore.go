package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

type TradeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTradeStore(db *surrealdb.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{
		db:     db,
		logger: logger,
	}
}

// Append stores one trade record. Trade IDs are unique so CREATE fails on a
// duplicate instead of silently overwriting history.
func (s *TradeStore) Append(ctx context.Context, t *models.Trade) error {
	sql := "CREATE type::record('trades', $id) CONTENT $trade"
	vars := map[string]any{"id": t.ID, "trade": t}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to append trade after retries: %w", err)
		}
	}
	return nil
}

// List returns the newest trades first, up to limit.
func (s *TradeStore) List(ctx context.Context, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	sql := "SELECT * FROM trades ORDER BY timestamp DESC LIMIT $limit"
	vars := map[string]any{"limit": limit}

	results, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	return mapTrades(results), nil
}

// All returns every stored trade, newest first.
func (s *TradeStore) All(ctx context.Context) ([]*models.Trade, error) {
	sql := "SELECT * FROM trades ORDER BY timestamp DESC"

	results, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	return mapTrades(results), nil
}

func mapTrades(results *[]surrealdb.QueryResult[[]models.Trade]) []*models.Trade {
	if results == nil || len(*results) == 0 {
		return nil
	}
	var mapped []*models.Trade
	for i := range (*results)[0].Result {
		mapped = append(mapped, &(*results)[0].Result[i])
	}
	return mapped
}
