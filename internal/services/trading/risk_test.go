package trading

import (
	"testing"
	"time"

	"github.com/djratlif/StockBot/internal/models"
)

func mediumProfile() models.RiskProfile {
	return models.RiskProfile{
		Tolerance:      models.RiskToleranceMedium,
		MaxDailyTrades: 5,
		MaxPositionPct: 1.0,
		MinCashReserve: 0,
	}
}

func portfolioWith(cash float64, holdings map[string]models.Holding) *models.Portfolio {
	if holdings == nil {
		holdings = map[string]models.Holding{}
	}
	return &models.Portfolio{
		ID:             "main",
		CashBalance:    cash,
		InitialBalance: cash,
		Holdings:       holdings,
		DailyCountDate: time.Now().Format("2006-01-02"),
	}
}

func TestEvaluateBuyClampsToCash(t *testing.T) {
	policy := NewRiskPolicy(mediumProfile())
	p := portfolioWith(100.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 50.0,
	})

	if verdict.Decision != models.RiskAllowAdjusted {
		t.Fatalf("decision = %v, want AllowAdjusted", verdict)
	}
	if verdict.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 (100/50)", verdict.Quantity)
	}
}

func TestEvaluateBuyRespectsCashReserve(t *testing.T) {
	profile := mediumProfile()
	profile.MinCashReserve = 5.0
	policy := NewRiskPolicy(profile)
	p := portfolioWith(20.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 5, Price: 4.0,
	})

	// (20 - 5) / 4 = 3 shares
	if verdict.Quantity != 3 {
		t.Errorf("quantity = %d, want 3 (reserve held back)", verdict.Quantity)
	}
}

func TestEvaluateBuyInsufficientFunds(t *testing.T) {
	profile := mediumProfile()
	profile.MinCashReserve = 5.0
	policy := NewRiskPolicy(profile)
	p := portfolioWith(6.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 1, Price: 10.0,
	})

	if verdict.Decision != models.RiskDeny || verdict.Reason != models.RejectInsufficientFunds {
		t.Errorf("verdict = %v, want DENY(INSUFFICIENT_FUNDS)", verdict)
	}
}

func TestEvaluateBuyConcentrationClamp(t *testing.T) {
	profile := mediumProfile()
	profile.MaxPositionPct = 0.20
	policy := NewRiskPolicy(profile)

	// Total value 100, cap 20, price 5: at most 4 shares in the position.
	p := portfolioWith(100.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 5.0,
	})

	if verdict.Decision != models.RiskAllowAdjusted {
		t.Fatalf("decision = %v, want AllowAdjusted", verdict)
	}
	if verdict.Quantity != 4 {
		t.Errorf("quantity = %d, want 4 (20%% of 100 at $5)", verdict.Quantity)
	}
}

func TestEvaluateBuyPositionAlreadyAtCap(t *testing.T) {
	profile := mediumProfile()
	profile.MaxPositionPct = 0.20
	policy := NewRiskPolicy(profile)

	p := portfolioWith(80.0, map[string]models.Holding{
		"AAPL": {Symbol: "AAPL", Quantity: 4, AvgCost: 5.0, LastPrice: 5.0},
	})

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 2, Price: 5.0,
	})

	if verdict.Decision != models.RiskDeny || verdict.Reason != models.RejectPositionLimit {
		t.Errorf("verdict = %v, want DENY(POSITION_LIMIT)", verdict)
	}
}

func TestEvaluateToleranceScalesConcentration(t *testing.T) {
	profile := mediumProfile()
	profile.MaxPositionPct = 0.20
	profile.Tolerance = models.RiskToleranceLow
	policy := NewRiskPolicy(profile)

	// LOW halves the cap: 10% of 100 = 10, at $5 that is 2 shares.
	p := portfolioWith(100.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 5.0,
	})

	if verdict.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 under LOW tolerance", verdict.Quantity)
	}
}

func TestEvaluateDailyLimit(t *testing.T) {
	policy := NewRiskPolicy(mediumProfile())
	p := portfolioWith(100.0, nil)
	p.DailyTradeCount = 5

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 1, Price: 5.0,
	})

	if verdict.Decision != models.RiskDeny || verdict.Reason != models.RejectDailyLimitReached {
		t.Errorf("verdict = %v, want DENY(DAILY_LIMIT_REACHED)", verdict)
	}
}

func TestEvaluateSellClampsToHolding(t *testing.T) {
	policy := NewRiskPolicy(mediumProfile())
	p := portfolioWith(10.0, map[string]models.Holding{
		"AAPL": {Symbol: "AAPL", Quantity: 3, AvgCost: 5.0, LastPrice: 6.0},
	})

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideSell, Quantity: 10, Price: 6.0,
	})

	if verdict.Decision != models.RiskAllowAdjusted {
		t.Fatalf("decision = %v, want AllowAdjusted", verdict)
	}
	if verdict.Quantity != 3 {
		t.Errorf("quantity = %d, want 3 (held)", verdict.Quantity)
	}
}

func TestEvaluateSellNothingHeld(t *testing.T) {
	policy := NewRiskPolicy(mediumProfile())
	p := portfolioWith(10.0, nil)

	verdict := policy.Evaluate(p, models.ProposedTrade{
		Symbol: "AAPL", Side: models.TradeSideSell, Quantity: 1, Price: 6.0,
	})

	if verdict.Decision != models.RiskDeny || verdict.Reason != models.RejectNothingToSell {
		t.Errorf("verdict = %v, want DENY(NOTHING_TO_SELL)", verdict)
	}
}

func TestEvaluateRejectsNonPositiveInputs(t *testing.T) {
	policy := NewRiskPolicy(mediumProfile())
	p := portfolioWith(100.0, nil)

	for _, proposed := range []models.ProposedTrade{
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 0, Price: 5.0},
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 1, Price: 0},
	} {
		verdict := policy.Evaluate(p, proposed)
		if verdict.Decision != models.RiskDeny {
			t.Errorf("Evaluate(%+v) = %v, want DENY", proposed, verdict)
		}
	}
}
