package models

import "time"

// Quote is the latest known price for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	Volume    int64     `json:"volume"`
	AsOf      time.Time `json:"as_of"`
	Source    string    `json:"source,omitempty"`
}

// PriceBar is a single day in a price history, oldest-first when sequenced.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
