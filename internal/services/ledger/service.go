// Package ledger owns the authoritative portfolio state. Every mutation goes
// through CommitTrade under a single lock, so reads always observe a fully
// committed portfolio.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// Service implements LedgerService on top of the portfolio, trade, and
// snapshot stores.
type Service struct {
	storage interfaces.StorageManager
	profile models.RiskProfile
	window  models.TradingWindow
	logger  *common.Logger

	mu        sync.Mutex
	portfolio *models.Portfolio
}

func NewService(storage interfaces.StorageManager, profile models.RiskProfile, window models.TradingWindow, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		profile: profile,
		window:  window,
		logger:  logger,
	}
}

// Initialize loads the portfolio from storage, creating it with the given
// starting balance when none exists yet.
func (s *Service) Initialize(ctx context.Context, initialBalance float64) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.storage.PortfolioStore().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	if stored != nil {
		s.portfolio = stored
		s.logger.Info().
			Float64("cash", stored.CashBalance).
			Int("holdings", len(stored.Holdings)).
			Msg("Portfolio loaded")
		return stored.Clone(), nil
	}

	now := time.Now().UTC()
	p := &models.Portfolio{
		CashBalance:    initialBalance,
		InitialBalance: initialBalance,
		Holdings:       map[string]models.Holding{},
		DailyCountDate: s.today(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.storage.PortfolioStore().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	s.portfolio = p
	s.logger.Info().Float64("initial_balance", initialBalance).Msg("Portfolio created")
	return p.Clone(), nil
}

// Portfolio returns a copy of the current committed portfolio.
func (s *Service) Portfolio(ctx context.Context) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.portfolio.Clone(), nil
}

// CommitTrade atomically applies an executed trade. Feasibility is
// re-validated under the lock: a trade that passed its risk check can still
// be denied here when a concurrent commit moved the portfolio first.
func (s *Service) CommitTrade(ctx context.Context, trade *models.Trade) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	now := trade.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	next := s.portfolio.Clone()
	s.rollDailyCountLocked(next, now)

	if err := applyTrade(next, trade, s.profile); err != nil {
		return nil, err
	}

	next.DailyTradeCount++
	next.UpdatedAt = now

	if err := s.storage.PortfolioStore().SaveWithTrade(ctx, next, trade); err != nil {
		// In-memory state untouched, so the failed commit leaves no trace.
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerCommit, err)
	}

	s.portfolio = next
	return next.Clone(), nil
}

// RecordRejectedTrade appends a REJECTED trade for audit. Portfolio state and
// the daily count are untouched.
func (s *Service) RecordRejectedTrade(ctx context.Context, trade *models.Trade) error {
	if trade.Status != models.TradeStatusRejected {
		return fmt.Errorf("trade %s is not REJECTED", trade.ID)
	}
	return s.storage.TradeStore().Append(ctx, trade)
}

// applyTrade mutates p with the trade, re-validating feasibility.
func applyTrade(p *models.Portfolio, trade *models.Trade, profile models.RiskProfile) error {
	if trade.Status != models.TradeStatusExecuted {
		return fmt.Errorf("trade %s is not EXECUTED", trade.ID)
	}
	if trade.Quantity <= 0 || trade.Price <= 0 {
		return fmt.Errorf("trade %s has non-positive quantity or price", trade.ID)
	}

	if p.DailyTradeCount >= profile.MaxDailyTrades {
		return &models.RiskDeniedError{Reason: models.RejectDailyLimitReached}
	}

	symbol := strings.ToUpper(trade.Symbol)
	cost := float64(trade.Quantity) * trade.Price

	switch trade.Side {
	case models.TradeSideBuy:
		if p.CashBalance-cost < profile.MinCashReserve {
			return &models.RiskDeniedError{Reason: models.RejectInsufficientFunds}
		}
		h := p.Holdings[symbol]
		newQty := h.Quantity + trade.Quantity
		h.Symbol = symbol
		h.AvgCost = (float64(h.Quantity)*h.AvgCost + cost) / float64(newQty)
		h.Quantity = newQty
		h.LastPrice = trade.Price
		h.LastUpdated = trade.Timestamp
		p.Holdings[symbol] = h
		p.CashBalance -= cost

	case models.TradeSideSell:
		h, ok := p.Holdings[symbol]
		if !ok || h.Quantity < trade.Quantity {
			return &models.RiskDeniedError{Reason: models.RejectNothingToSell}
		}
		h.Quantity -= trade.Quantity
		h.LastPrice = trade.Price
		h.LastUpdated = trade.Timestamp
		if h.Quantity == 0 {
			delete(p.Holdings, symbol)
		} else {
			p.Holdings[symbol] = h
		}
		p.CashBalance += cost

	default:
		return fmt.Errorf("trade %s has unknown side %q", trade.ID, trade.Side)
	}

	return nil
}

// Snapshot materializes a valuation snapshot at now. Snapshots are keyed at
// second granularity, so a repeated call for the same instant returns the
// stored one.
func (s *Service) Snapshot(ctx context.Context, now time.Time) (*models.PortfolioSnapshot, error) {
	ts := now.UTC().Truncate(time.Second)

	if existing, err := s.storage.SnapshotStore().Get(ctx, ts); err == nil && existing != nil {
		return existing, nil
	}

	p, err := s.Portfolio(ctx)
	if err != nil {
		return nil, err
	}

	snap := buildSnapshot(p, ts)
	if err := s.storage.SnapshotStore().Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug().
		Time("timestamp", ts).
		Float64("total_value", snap.TotalValue).
		Msg("Snapshot recorded")
	return snap, nil
}

func buildSnapshot(p *models.Portfolio, ts time.Time) *models.PortfolioSnapshot {
	totalValue := p.TotalValue()
	totalReturn := totalValue - p.InitialBalance

	returnPct := 0.0
	if p.InitialBalance > 0 {
		returnPct = totalReturn / p.InitialBalance
	}

	return &models.PortfolioSnapshot{
		Timestamp:      ts,
		TotalValue:     totalValue,
		CashBalance:    p.CashBalance,
		HoldingsValue:  p.HoldingsValue(),
		TotalReturn:    totalReturn,
		TotalReturnPct: returnPct,
	}
}

// ChartData returns snapshots within the trailing window, oldest first.
func (s *Service) ChartData(ctx context.Context, days int) ([]models.PortfolioSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	from := time.Now().UTC().AddDate(0, 0, -days)
	return s.storage.SnapshotStore().ListSince(ctx, from)
}

// Trades returns the newest trades (executed and rejected), newest first.
func (s *Service) Trades(ctx context.Context, limit int) ([]*models.Trade, error) {
	return s.storage.TradeStore().List(ctx, limit)
}

// Stats summarizes the full trade history.
func (s *Service) Stats(ctx context.Context) (*models.TradingStats, error) {
	trades, err := s.storage.TradeStore().All(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.TradingStats{
		Rejections: map[models.RejectionReason]int{},
	}
	for _, t := range trades {
		stats.TotalTrades++
		switch t.Status {
		case models.TradeStatusExecuted:
			stats.ExecutedTrades++
			switch t.Side {
			case models.TradeSideBuy:
				stats.BuyCount++
			case models.TradeSideSell:
				stats.SellCount++
			}
		case models.TradeStatusRejected:
			stats.RejectedTrades++
			if t.RejectionReason != "" {
				stats.Rejections[t.RejectionReason]++
			}
		}
	}
	return stats, nil
}

// UpdateHoldingPrices refreshes last known prices on held positions so
// snapshots value them at current market rather than the last trade price.
func (s *Service) UpdateHoldingPrices(ctx context.Context, quotes map[string]*models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	next := s.portfolio.Clone()
	changed := false
	for symbol, q := range quotes {
		h, ok := next.Holdings[strings.ToUpper(symbol)]
		if !ok || q == nil || q.Price <= 0 {
			continue
		}
		h.LastPrice = q.Price
		h.LastUpdated = q.AsOf
		next.Holdings[strings.ToUpper(symbol)] = h
		changed = true
	}
	if !changed {
		return nil
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.storage.PortfolioStore().Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save refreshed prices: %w", err)
	}
	s.portfolio = next
	return nil
}

// ensureLoaded lazily loads the portfolio under the caller's lock.
func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.portfolio != nil {
		return nil
	}
	stored, err := s.storage.PortfolioStore().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load portfolio: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("portfolio not initialized")
	}
	if stored.Holdings == nil {
		stored.Holdings = map[string]models.Holding{}
	}
	s.portfolio = stored
	return nil
}

func (s *Service) today(now time.Time) string {
	return now.In(s.window.Location()).Format("2006-01-02")
}

// rollDailyCountLocked resets the daily trade count when the trading-day date
// has rolled over. Caller holds the lock.
func (s *Service) rollDailyCountLocked(p *models.Portfolio, now time.Time) {
	today := s.today(now)
	if p.DailyCountDate != today {
		p.DailyCountDate = today
		p.DailyTradeCount = 0
	}
}

// Ensure Service implements LedgerService
var _ interfaces.LedgerService = (*Service)(nil)
