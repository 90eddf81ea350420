package models

import (
	"fmt"
	"time"
)

// RiskTolerance scales how aggressively the risk policy permits position size
// and how much advisor confidence is required before a buy.
type RiskTolerance string

const (
	RiskToleranceLow    RiskTolerance = "LOW"
	RiskToleranceMedium RiskTolerance = "MEDIUM"
	RiskToleranceHigh   RiskTolerance = "HIGH"
)

// RiskProfile is the bot's risk configuration. Immutable for the life of a
// running instance.
type RiskProfile struct {
	Tolerance      RiskTolerance `json:"risk_tolerance"`
	MaxDailyTrades int           `json:"max_daily_trades"`
	MaxPositionPct float64       `json:"max_position_pct"`
	// ConfidenceFloor overrides the tolerance-derived floor when > 0.
	ConfidenceFloor float64 `json:"confidence_floor,omitempty"`
	MinCashReserve  float64 `json:"min_cash_reserve"`
	// StopLossPct and TakeProfitPct trigger a forced sell when an open
	// position's unrealized return crosses them (e.g. -0.10, 0.15).
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`
}

// EffectiveMaxPositionPct scales the concentration cap by tolerance:
// LOW halves it, HIGH raises it by half (capped at 100%).
func (rp RiskProfile) EffectiveMaxPositionPct() float64 {
	pct := rp.MaxPositionPct
	switch rp.Tolerance {
	case RiskToleranceLow:
		pct *= 0.5
	case RiskToleranceHigh:
		pct *= 1.5
	}
	if pct > 1.0 {
		pct = 1.0
	}
	return pct
}

// EffectiveConfidenceFloor returns the minimum advisor confidence required
// before a BUY is allowed. LOW demands high-confidence recommendations; HIGH
// accepts any non-HOLD directive.
func (rp RiskProfile) EffectiveConfidenceFloor() float64 {
	if rp.ConfidenceFloor > 0 {
		return rp.ConfidenceFloor
	}
	switch rp.Tolerance {
	case RiskToleranceLow:
		return 0.8
	case RiskToleranceHigh:
		return 0
	default:
		return 0.6
	}
}

// TradingWindow is the daily interval during which trades may execute,
// half-open [start, end) in the configured timezone.
type TradingWindow struct {
	StartHour   int    `json:"start_hour"`
	StartMinute int    `json:"start_minute"`
	EndHour     int    `json:"end_hour"`
	EndMinute   int    `json:"end_minute"`
	Timezone    string `json:"timezone"`
}

// Location resolves the window timezone, defaulting to US/Eastern market time.
func (w TradingWindow) Location() *time.Location {
	tz := w.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ProposedTrade is a trade the executor wants to commit, pre risk evaluation.
type ProposedTrade struct {
	Symbol   string
	Side     TradeSide
	Quantity int64
	Price    float64
}

// RiskDecision is the outcome class of a risk evaluation.
type RiskDecision int

const (
	RiskAllow RiskDecision = iota
	RiskAllowAdjusted
	RiskDeny
)

// RiskVerdict is the result of evaluating a proposed trade against the
// portfolio and risk profile.
type RiskVerdict struct {
	Decision RiskDecision
	// Quantity is the permitted quantity: the proposed quantity for Allow,
	// the clamped quantity for AllowAdjusted, zero for Deny.
	Quantity int64
	Reason   RejectionReason
}

func (v RiskVerdict) String() string {
	switch v.Decision {
	case RiskAllow:
		return fmt.Sprintf("ALLOW(%d)", v.Quantity)
	case RiskAllowAdjusted:
		return fmt.Sprintf("ALLOW_ADJUSTED(%d)", v.Quantity)
	default:
		return fmt.Sprintf("DENY(%s)", v.Reason)
	}
}

// CycleOutcome classifies how a decision cycle ended.
type CycleOutcome string

const (
	CycleExecuted CycleOutcome = "executed"
	CycleRejected CycleOutcome = "rejected"
	CycleHold     CycleOutcome = "hold"
)

// CycleResult reports one full decision cycle for one symbol.
type CycleResult struct {
	Symbol         string          `json:"symbol"`
	Outcome        CycleOutcome    `json:"outcome"`
	Trade          *Trade          `json:"trade,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Price          float64         `json:"price,omitempty"`
}
