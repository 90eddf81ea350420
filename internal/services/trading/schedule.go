// Package trading implements the decision cycle: schedule gate, risk policy,
// and the executor state machine that ties them to the advisor and ledger.
package trading

import (
	"time"

	"github.com/djratlif/StockBot/internal/models"
)

// ScheduleGate decides whether trading is permitted at a given instant.
type ScheduleGate struct {
	window models.TradingWindow
}

func NewScheduleGate(window models.TradingWindow) *ScheduleGate {
	return &ScheduleGate{window: window}
}

// IsOpen reports whether now falls inside the trading window. The window is
// half-open: the start minute trades, the end minute does not. Saturdays and
// Sundays are always closed.
func (g *ScheduleGate) IsOpen(now time.Time) bool {
	local := now.In(g.window.Location())

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	start := g.window.StartHour*60 + g.window.StartMinute
	end := g.window.EndHour*60 + g.window.EndMinute

	return minutes >= start && minutes < end
}

// Window returns the configured trading window.
func (g *ScheduleGate) Window() models.TradingWindow {
	return g.window
}
