// Package models defines data structures for StockBot
package models

import (
	"time"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeStatus is the terminal outcome of a decision cycle that produced a trade record.
type TradeStatus string

const (
	TradeStatusExecuted TradeStatus = "EXECUTED"
	TradeStatusRejected TradeStatus = "REJECTED"
)

// RejectionReason explains why a trade was rejected. Present iff status is REJECTED.
type RejectionReason string

const (
	RejectMarketClosed      RejectionReason = "MARKET_CLOSED"
	RejectNoData            RejectionReason = "NO_DATA"
	RejectDailyLimitReached RejectionReason = "DAILY_LIMIT_REACHED"
	RejectInsufficientFunds RejectionReason = "INSUFFICIENT_FUNDS"
	RejectPositionLimit     RejectionReason = "POSITION_LIMIT"
	RejectNothingToSell     RejectionReason = "NOTHING_TO_SELL"
)

// Holding represents a single position in the portfolio.
type Holding struct {
	Symbol      string    `json:"symbol"`
	Quantity    int64     `json:"quantity"`
	AvgCost     float64   `json:"avg_cost"`
	LastPrice   float64   `json:"last_price"`
	LastUpdated time.Time `json:"last_updated"`
}

// MarketValue returns the position value at the last known price.
func (h Holding) MarketValue() float64 {
	return float64(h.Quantity) * h.LastPrice
}

// UnrealizedReturnPct returns the percentage gain/loss against average cost.
// Zero when no cost basis exists.
func (h Holding) UnrealizedReturnPct() float64 {
	if h.AvgCost <= 0 {
		return 0
	}
	return (h.LastPrice - h.AvgCost) / h.AvgCost
}

// Portfolio is the authoritative bot portfolio state. A single instance exists
// per bot; all mutation goes through the ledger's commit path.
type Portfolio struct {
	ID              string             `json:"id"`
	CashBalance     float64            `json:"cash_balance"`
	InitialBalance  float64            `json:"initial_balance"`
	Holdings        map[string]Holding `json:"holdings"`
	DailyTradeCount int                `json:"daily_trade_count"`
	// DailyCountDate is the trading-window-local date (YYYY-MM-DD) the daily
	// count belongs to. The count resets when the date rolls over.
	DailyCountDate string    `json:"daily_count_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HoldingsValue returns the market value of all positions at last known prices.
func (p *Portfolio) HoldingsValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.MarketValue()
	}
	return total
}

// TotalValue returns cash plus holdings value.
func (p *Portfolio) TotalValue() float64 {
	return p.CashBalance + p.HoldingsValue()
}

// Clone returns a deep copy of the portfolio. Ledger reads hand out clones so
// callers can never mutate committed state.
func (p *Portfolio) Clone() *Portfolio {
	cp := *p
	cp.Holdings = make(map[string]Holding, len(p.Holdings))
	for sym, h := range p.Holdings {
		cp.Holdings[sym] = h
	}
	return &cp
}

// Trade is an immutable record of one decision-cycle outcome. Rejected trades
// are kept alongside executed ones for audit.
type Trade struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Symbol          string          `json:"symbol"`
	Side            TradeSide       `json:"side"`
	Quantity        int64           `json:"quantity"`
	Price           float64         `json:"price"`
	TotalAmount     float64         `json:"total_amount"`
	Rationale       string          `json:"rationale,omitempty"`
	Confidence      float64         `json:"confidence,omitempty"`
	Status          TradeStatus     `json:"status"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty"`
}

// PortfolioSnapshot is a timestamped valuation record used for charting.
// Snapshots are immutable and strictly increasing by timestamp.
type PortfolioSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	TotalValue     float64   `json:"total_value"`
	CashBalance    float64   `json:"cash_balance"`
	HoldingsValue  float64   `json:"holdings_value"`
	TotalReturn    float64   `json:"total_return"`
	TotalReturnPct float64   `json:"total_return_pct"`
}

// TradingStats summarizes trade history for the dashboard.
type TradingStats struct {
	TotalTrades    int                     `json:"total_trades"`
	ExecutedTrades int                     `json:"executed_trades"`
	RejectedTrades int                     `json:"rejected_trades"`
	BuyCount       int                     `json:"buy_count"`
	SellCount      int                     `json:"sell_count"`
	Rejections     map[RejectionReason]int `json:"rejections,omitempty"`
}
