package trading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// historyLookbackDays is how much daily history feeds the advisor.
const historyLookbackDays = 90

// Executor drives one decision cycle per symbol: schedule gate, data fetch,
// advice, risk evaluation, commit. Only the ledger mutates portfolio state.
type Executor struct {
	gate    *ScheduleGate
	policy  *RiskPolicy
	market  interfaces.MarketService
	advisor interfaces.AdvisorService
	ledger  interfaces.LedgerService
	logger  *common.Logger

	// now is swappable for tests
	now func() time.Time
}

func NewExecutor(gate *ScheduleGate, policy *RiskPolicy, market interfaces.MarketService, advisor interfaces.AdvisorService, ledger interfaces.LedgerService, logger *common.Logger) *Executor {
	return &Executor{
		gate:    gate,
		policy:  policy,
		market:  market,
		advisor: advisor,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
	}
}

// RunCycle executes one full decision cycle for one symbol. Rejections are
// recorded as REJECTED trades and reported in the result, not returned as
// errors; only system faults (storage, context) produce an error.
func (e *Executor) RunCycle(ctx context.Context, symbol string) (*models.CycleResult, error) {
	symbol = strings.ToUpper(symbol)
	now := e.now()

	// Gate check
	if !e.gate.IsOpen(now) {
		e.logger.Debug().Str("symbol", symbol).Msg("Market closed, cycle skipped")
		return e.reject(ctx, symbol, "", 0, 0, models.RejectMarketClosed, nil)
	}

	// Data fetch
	quote, err := e.market.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			e.logger.Warn().Err(err).Str("symbol", symbol).Msg("No market data, cycle rejected")
			return e.reject(ctx, symbol, "", 0, 0, models.RejectNoData, nil)
		}
		return nil, err
	}

	portfolio, err := e.ledger.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	e.rollDailyCount(portfolio, now)

	// Protective exits bypass the advisor: a position past its stop-loss or
	// take-profit threshold is sold regardless of what the model thinks.
	if rec, forced := e.protectiveExit(portfolio, symbol, quote.Price); forced {
		return e.decide(ctx, symbol, quote, portfolio, rec)
	}

	// History is advisory context only; a failed fetch does not stop the cycle.
	history, err := e.market.GetHistory(ctx, symbol, historyLookbackDays)
	if err != nil {
		e.logger.Warn().Err(err).Str("symbol", symbol).Msg("History unavailable, advising on quote only")
		history = nil
	}

	// Advise
	rec, err := e.advisor.Recommend(ctx, symbol, quote, history, portfolio)
	if err != nil {
		if errors.Is(err, models.ErrAdvisorUnavailable) {
			e.logger.Warn().Err(err).Str("symbol", symbol).Msg("Advisor unavailable, holding")
			return &models.CycleResult{Symbol: symbol, Outcome: models.CycleHold, Price: quote.Price}, nil
		}
		return nil, err
	}

	return e.decide(ctx, symbol, quote, portfolio, rec)
}

// decide sizes the recommendation, evaluates risk, and commits.
func (e *Executor) decide(ctx context.Context, symbol string, quote *models.Quote, portfolio *models.Portfolio, rec *models.Recommendation) (*models.CycleResult, error) {
	if rec.Action == models.ActionHold {
		return &models.CycleResult{
			Symbol:         symbol,
			Outcome:        models.CycleHold,
			Recommendation: rec,
			Price:          quote.Price,
		}, nil
	}

	proposed := e.size(portfolio, symbol, rec.Action, quote.Price)

	// Risk check
	verdict := e.policy.Evaluate(portfolio, proposed)
	if verdict.Decision == models.RiskDeny {
		e.logger.Info().
			Str("symbol", symbol).
			Str("action", string(rec.Action)).
			Str("verdict", verdict.String()).
			Msg("Trade denied by risk policy")
		return e.reject(ctx, symbol, models.TradeSide(rec.Action), proposed.Quantity, quote.Price, verdict.Reason, rec)
	}

	// Commit
	trade := &models.Trade{
		ID:          uuid.New().String(),
		Timestamp:   e.now().UTC(),
		Symbol:      symbol,
		Side:        models.TradeSide(rec.Action),
		Quantity:    verdict.Quantity,
		Price:       quote.Price,
		TotalAmount: float64(verdict.Quantity) * quote.Price,
		Rationale:   rec.Rationale,
		Confidence:  rec.Confidence,
		Status:      models.TradeStatusExecuted,
	}

	if _, err := e.ledger.CommitTrade(ctx, trade); err != nil {
		if denied, ok := models.AsRiskDenied(err); ok {
			// A concurrent commit invalidated the risk check.
			return e.reject(ctx, symbol, trade.Side, trade.Quantity, trade.Price, denied.Reason, rec)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerCommit, err)
	}

	e.logger.Info().
		Str("symbol", symbol).
		Str("side", string(trade.Side)).
		Int64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Float64("confidence", trade.Confidence).
		Msg("Trade executed")

	return &models.CycleResult{
		Symbol:         symbol,
		Outcome:        models.CycleExecuted,
		Trade:          trade,
		Recommendation: rec,
		Price:          quote.Price,
	}, nil
}

// size converts an advisor directive into a proposed trade. Buys target the
// concentration cap's share of portfolio value; sells liquidate the position.
// The risk policy clamps both.
func (e *Executor) size(portfolio *models.Portfolio, symbol string, action models.TradeAction, price float64) models.ProposedTrade {
	side := models.TradeSide(action)

	if side == models.TradeSideSell {
		return models.ProposedTrade{
			Symbol:   symbol,
			Side:     side,
			Quantity: portfolio.Holdings[symbol].Quantity,
			Price:    price,
		}
	}

	targetSpend := e.policy.Profile().EffectiveMaxPositionPct() * portfolio.TotalValue()
	qty := int64(math.Floor(targetSpend / price))
	if qty < 1 {
		qty = 1
	}
	return models.ProposedTrade{
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    price,
	}
}

// protectiveExit returns a forced SELL recommendation when the position's
// unrealized return crosses the stop-loss or take-profit threshold.
func (e *Executor) protectiveExit(portfolio *models.Portfolio, symbol string, price float64) (*models.Recommendation, bool) {
	h, ok := portfolio.Holdings[symbol]
	if !ok || h.Quantity <= 0 || h.AvgCost <= 0 {
		return nil, false
	}

	profile := e.policy.Profile()
	ret := (price - h.AvgCost) / h.AvgCost

	switch {
	case profile.StopLossPct < 0 && ret <= profile.StopLossPct:
		e.logger.Info().Str("symbol", symbol).Float64("return", ret).Msg("Stop loss triggered")
		return &models.Recommendation{
			Action:     models.ActionSell,
			Confidence: 1.0,
			Rationale:  fmt.Sprintf("Stop loss: position down %.1f%% from avg cost", ret*100),
		}, true
	case profile.TakeProfitPct > 0 && ret >= profile.TakeProfitPct:
		e.logger.Info().Str("symbol", symbol).Float64("return", ret).Msg("Take profit triggered")
		return &models.Recommendation{
			Action:     models.ActionSell,
			Confidence: 1.0,
			Rationale:  fmt.Sprintf("Take profit: position up %.1f%% from avg cost", ret*100),
		}, true
	}
	return nil, false
}

// rollDailyCount zeroes the daily trade count on the local copy when the
// trading-day date has rolled over. The ledger does the same under its lock
// at commit time.
func (e *Executor) rollDailyCount(p *models.Portfolio, now time.Time) {
	today := now.In(e.gate.Window().Location()).Format("2006-01-02")
	if p.DailyCountDate != today {
		p.DailyCountDate = today
		p.DailyTradeCount = 0
	}
}

// reject records a REJECTED trade for audit and reports the cycle outcome.
func (e *Executor) reject(ctx context.Context, symbol string, side models.TradeSide, quantity int64, price float64, reason models.RejectionReason, rec *models.Recommendation) (*models.CycleResult, error) {
	trade := &models.Trade{
		ID:              uuid.New().String(),
		Timestamp:       e.now().UTC(),
		Symbol:          symbol,
		Side:            side,
		Quantity:        quantity,
		Price:           price,
		Status:          models.TradeStatusRejected,
		RejectionReason: reason,
	}
	if rec != nil {
		trade.Rationale = rec.Rationale
		trade.Confidence = rec.Confidence
	}

	if err := e.ledger.RecordRejectedTrade(ctx, trade); err != nil {
		e.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to record rejected trade")
	}

	return &models.CycleResult{
		Symbol:         symbol,
		Outcome:        models.CycleRejected,
		Trade:          trade,
		Recommendation: rec,
		Price:          price,
	}, nil
}

// Ensure Executor implements TradeExecutor
var _ interfaces.TradeExecutor = (*Executor)(nil)
