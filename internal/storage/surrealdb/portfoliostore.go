package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

// PortfolioID is the record key of the singleton portfolio.
const PortfolioID = "main"

type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{
		db:     db,
		logger: logger,
	}
}

// Get returns the stored portfolio, or nil when none exists yet.
func (s *PortfolioStore) Get(ctx context.Context) (*models.Portfolio, error) {
	p, err := surrealdb.Select[models.Portfolio](ctx, s.db, surrealmodels.NewRecordID("portfolio", PortfolioID))
	if err != nil {
		return nil, fmt.Errorf("failed to select portfolio: %w", err)
	}
	if p == nil || p.ID == "" {
		return nil, nil
	}
	return p, nil
}

// Save upserts the portfolio.
func (s *PortfolioStore) Save(ctx context.Context, p *models.Portfolio) error {
	p.ID = PortfolioID

	sql := "UPSERT type::record('portfolio', $id) CONTENT $portfolio"
	vars := map[string]any{"id": PortfolioID, "portfolio": p}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Portfolio](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save portfolio after retries: %w", err)
		}
	}
	return nil
}

// SaveWithTrade upserts the portfolio and appends the trade in one database
// transaction so a crash between the two writes cannot desync cash and history.
func (s *PortfolioStore) SaveWithTrade(ctx context.Context, p *models.Portfolio, t *models.Trade) error {
	p.ID = PortfolioID

	sql := `BEGIN TRANSACTION;
UPSERT type::record('portfolio', $pid) CONTENT $portfolio;
CREATE type::record('trades', $tid) CONTENT $trade;
COMMIT TRANSACTION;`
	vars := map[string]any{
		"pid":       PortfolioID,
		"portfolio": p,
		"tid":       t.ID,
		"trade":     t,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to commit portfolio with trade: %w", err)
	}
	return nil
}
