package trading

import (
	"math"
	"strings"

	"github.com/djratlif/StockBot/internal/models"
)

// RiskPolicy evaluates proposed trades against the portfolio and risk
// profile. Evaluation is pure: it never mutates the portfolio.
type RiskPolicy struct {
	profile models.RiskProfile
}

func NewRiskPolicy(profile models.RiskProfile) *RiskPolicy {
	return &RiskPolicy{profile: profile}
}

// Profile returns the configured risk profile.
func (p *RiskPolicy) Profile() models.RiskProfile {
	return p.profile
}

// Evaluate applies the risk rules in order: daily cap, then cash sufficiency
// with the reserve held back, then position concentration, then sell
// feasibility. Quantities are clamped down rather than denied outright when a
// smaller trade still fits.
func (p *RiskPolicy) Evaluate(portfolio *models.Portfolio, proposed models.ProposedTrade) models.RiskVerdict {
	if proposed.Quantity <= 0 || proposed.Price <= 0 {
		return deny(models.RejectNoData)
	}

	if portfolio.DailyTradeCount >= p.profile.MaxDailyTrades {
		return deny(models.RejectDailyLimitReached)
	}

	switch proposed.Side {
	case models.TradeSideBuy:
		return p.evaluateBuy(portfolio, proposed)
	case models.TradeSideSell:
		return p.evaluateSell(portfolio, proposed)
	default:
		return deny(models.RejectNoData)
	}
}

func (p *RiskPolicy) evaluateBuy(portfolio *models.Portfolio, proposed models.ProposedTrade) models.RiskVerdict {
	symbol := strings.ToUpper(proposed.Symbol)

	// Cash sufficiency: the reserve never gets spent.
	available := portfolio.CashBalance - p.profile.MinCashReserve
	cashQty := int64(math.Floor(available / proposed.Price))
	if cashQty <= 0 {
		return deny(models.RejectInsufficientFunds)
	}

	// Concentration: the position after the buy must stay within the
	// tolerance-scaled share of total portfolio value. The target symbol is
	// valued at the proposed price so a stale cached price cannot widen the cap.
	held := portfolio.Holdings[symbol].Quantity
	totalValue := portfolio.CashBalance
	for sym, h := range portfolio.Holdings {
		if sym == symbol {
			totalValue += float64(h.Quantity) * proposed.Price
		} else {
			totalValue += h.MarketValue()
		}
	}

	maxPositionValue := p.profile.EffectiveMaxPositionPct() * totalValue
	concentrationQty := int64(math.Floor(maxPositionValue/proposed.Price)) - held
	if concentrationQty <= 0 {
		return deny(models.RejectPositionLimit)
	}

	allowed := proposed.Quantity
	if cashQty < allowed {
		allowed = cashQty
	}
	if concentrationQty < allowed {
		allowed = concentrationQty
	}

	if allowed == proposed.Quantity {
		return models.RiskVerdict{Decision: models.RiskAllow, Quantity: allowed}
	}
	return models.RiskVerdict{Decision: models.RiskAllowAdjusted, Quantity: allowed}
}

func (p *RiskPolicy) evaluateSell(portfolio *models.Portfolio, proposed models.ProposedTrade) models.RiskVerdict {
	held := portfolio.Holdings[strings.ToUpper(proposed.Symbol)].Quantity
	if held <= 0 {
		return deny(models.RejectNothingToSell)
	}

	if proposed.Quantity <= held {
		return models.RiskVerdict{Decision: models.RiskAllow, Quantity: proposed.Quantity}
	}
	return models.RiskVerdict{Decision: models.RiskAllowAdjusted, Quantity: held}
}

func deny(reason models.RejectionReason) models.RiskVerdict {
	return models.RiskVerdict{Decision: models.RiskDeny, Reason: reason}
}
