package signals

import (
	"fmt"
	"strings"

	"github.com/djratlif/StockBot/internal/models"
)

// Summary holds the indicator set computed for one symbol's daily history.
type Summary struct {
	SMA20       float64 `json:"sma_20"`
	SMA50       float64 `json:"sma_50"`
	EMA12       float64 `json:"ema_12"`
	RSI14       float64 `json:"rsi_14"`
	RSIState    string  `json:"rsi_state"`
	ATR14       float64 `json:"atr_14"`
	VolumeRatio float64 `json:"volume_ratio"`
	VolumeState string  `json:"volume_state"`
	Crossover   string  `json:"crossover"`
	Trend       string  `json:"trend"`
	DistToSMA20 float64 `json:"dist_to_sma_20"`
	DistToSMA50 float64 `json:"dist_to_sma_50"`
	HistoryDays int     `json:"history_days"`
}

// Compute derives a Summary from oldest-first daily bars and the current
// price. Indicators without enough history come back zero or neutral.
func Compute(bars []models.PriceBar, currentPrice float64) *Summary {
	s := &Summary{
		SMA20:       SMA(bars, 20),
		SMA50:       SMA(bars, 50),
		EMA12:       EMA(bars, 12),
		RSI14:       RSI(bars, 14),
		ATR14:       ATR(bars, 14),
		VolumeRatio: VolumeRatio(bars, 20),
		Crossover:   DetectCrossover(bars, 20, 50),
		HistoryDays: len(bars),
	}

	s.RSIState = ClassifyRSI(s.RSI14)
	s.VolumeState = ClassifyVolume(s.VolumeRatio)
	s.DistToSMA20 = DistanceToSMA(currentPrice, s.SMA20)
	s.DistToSMA50 = DistanceToSMA(currentPrice, s.SMA50)
	s.Trend = classifyTrend(currentPrice, s.SMA20, s.SMA50)

	return s
}

func classifyTrend(price, sma20, sma50 float64) string {
	if sma20 == 0 || sma50 == 0 {
		return "unknown"
	}
	if price > sma50 && sma20 > sma50 {
		return "bullish"
	}
	if price < sma50 && sma20 < sma50 {
		return "bearish"
	}
	return "neutral"
}

// Describe renders the summary as compact lines suitable for a model prompt.
func (s *Summary) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend: %s", s.Trend)
	if s.Crossover != "none" {
		fmt.Fprintf(&b, " (recent %s)", strings.ReplaceAll(s.Crossover, "_", " "))
	}
	b.WriteString("\n")
	if s.SMA20 > 0 {
		fmt.Fprintf(&b, "SMA20: %.2f (price %+.1f%%)\n", s.SMA20, s.DistToSMA20)
	}
	if s.SMA50 > 0 {
		fmt.Fprintf(&b, "SMA50: %.2f (price %+.1f%%)\n", s.SMA50, s.DistToSMA50)
	}
	fmt.Fprintf(&b, "RSI14: %.1f (%s)\n", s.RSI14, s.RSIState)
	if s.ATR14 > 0 {
		fmt.Fprintf(&b, "ATR14: %.2f\n", s.ATR14)
	}
	fmt.Fprintf(&b, "Volume: %.2fx average (%s)", s.VolumeRatio, s.VolumeState)
	return b.String()
}
