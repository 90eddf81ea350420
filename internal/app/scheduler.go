package app

import (
	"context"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// StartScheduler launches the background trade and snapshot loops.
func (a *App) StartScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	go runTradeLoop(ctx, a.Executor, a.Config.Trading.Symbols, a.Config.Trading.GetTickInterval(), a.Logger)
	go runSnapshotLoop(ctx, a.LedgerService, a.MarketService, a.Config.Trading.GetSnapshotInterval(), a.Logger)
}

// runTradeLoop runs one decision cycle per configured symbol on each tick.
// Symbols run sequentially: the daily trade cap is first come, first served.
func runTradeLoop(ctx context.Context, executor interfaces.TradeExecutor, symbols []string, interval time.Duration, logger *common.Logger) {
	if len(symbols) == 0 {
		logger.Warn().Msg("Trade loop: no symbols configured")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().
		Strs("symbols", symbols).
		Dur("interval", interval).
		Msg("Trade loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Trade loop: stopped")
			return
		case <-ticker.C:
			runCycles(ctx, executor, symbols, logger)
		}
	}
}

func runCycles(ctx context.Context, executor interfaces.TradeExecutor, symbols []string, logger *common.Logger) {
	start := time.Now()

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		result, err := executor.RunCycle(ctx, symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Decision cycle failed")
			continue
		}
		logger.Debug().
			Str("symbol", symbol).
			Str("outcome", string(result.Outcome)).
			Msg("Decision cycle complete")
	}

	logger.Info().
		Int("symbols", len(symbols)).
		Dur("elapsed", time.Since(start)).
		Msg("Trade tick complete")
}

// runSnapshotLoop refreshes held prices and records a valuation snapshot on
// each tick.
func runSnapshotLoop(ctx context.Context, ledgerService interfaces.LedgerService, marketService interfaces.MarketService, interval time.Duration, logger *common.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Snapshot loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Snapshot loop: stopped")
			return
		case <-ticker.C:
			takeSnapshot(ctx, ledgerService, marketService, logger)
		}
	}
}

func takeSnapshot(ctx context.Context, ledgerService interfaces.LedgerService, marketService interfaces.MarketService, logger *common.Logger) {
	refreshHeldPrices(ctx, ledgerService, marketService, logger)

	snap, err := ledgerService.Snapshot(ctx, time.Now())
	if err != nil {
		logger.Warn().Err(err).Msg("Snapshot failed")
		return
	}

	logger.Debug().
		Float64("total_value", snap.TotalValue).
		Float64("return_pct", snap.TotalReturnPct).
		Msg("Snapshot recorded")
}

// refreshHeldPrices fetches a quote per held symbol so the snapshot values
// positions at current market.
func refreshHeldPrices(ctx context.Context, ledgerService interfaces.LedgerService, marketService interfaces.MarketService, logger *common.Logger) {
	p, err := ledgerService.Portfolio(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Price refresh: portfolio unavailable")
		return
	}
	if len(p.Holdings) == 0 {
		return
	}

	quotes := make(map[string]*models.Quote, len(p.Holdings))
	for symbol := range p.Holdings {
		q, err := marketService.GetQuote(ctx, symbol)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Price refresh: quote unavailable")
			continue
		}
		quotes[symbol] = q
	}
	if len(quotes) == 0 {
		return
	}

	if err := ledgerService.UpdateHoldingPrices(ctx, quotes); err != nil {
		logger.Warn().Err(err).Msg("Price refresh: update failed")
	}
}
