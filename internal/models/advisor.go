package models

// TradeAction is the advisor's directive for a symbol.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
	ActionHold TradeAction = "HOLD"
)

// Recommendation is the structured output of one advisor inference call.
// It is transient: never persisted except through the resulting Trade record.
type Recommendation struct {
	Action     TradeAction `json:"action"`
	Confidence float64     `json:"confidence"`
	Rationale  string      `json:"rationale"`
}
