// Package signals provides technical indicator calculations over daily
// price history. Bars are expected oldest-first, matching the order the
// market service returns them.
package signals

import (
	"math"

	"github.com/djratlif/StockBot/internal/models"
)

// SMA calculates the Simple Moving Average over the most recent period bars.
func SMA(bars []models.PriceBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// EMA calculates the Exponential Moving Average over the most recent period
// bars, seeded with the SMA of the window before it when available.
func EMA(bars []models.PriceBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := SMA(bars[:len(bars)-period+1], period)
	if ema == 0 {
		ema = bars[len(bars)-period].Close
	}

	for i := len(bars) - period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}
	return ema
}

// RSI calculates the Relative Strength Index over the most recent period.
// Returns 50 (neutral) when there is not enough history.
func RSI(bars []models.PriceBar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(bars) - period; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ATR calculates the Average True Range over the most recent period.
func ATR(bars []models.PriceBar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 0
	}

	trSum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i-1].Close

		tr1 := high - low
		tr2 := math.Abs(high - prevClose)
		tr3 := math.Abs(low - prevClose)

		trSum += math.Max(tr1, math.Max(tr2, tr3))
	}
	return trSum / float64(period)
}

// AverageVolume calculates average volume over the most recent period bars.
func AverageVolume(bars []models.PriceBar, period int) int64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	var sum int64
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / int64(period)
}

// VolumeRatio calculates the latest bar's volume as a ratio of the average.
func VolumeRatio(bars []models.PriceBar, period int) float64 {
	if len(bars) == 0 {
		return 1.0
	}

	avg := AverageVolume(bars, period)
	if avg == 0 {
		return 1.0
	}
	return float64(bars[len(bars)-1].Volume) / float64(avg)
}

// DetectCrossover detects SMA crossovers between the short and long period.
// Returns "golden_cross", "death_cross", or "none".
func DetectCrossover(bars []models.PriceBar, shortPeriod, longPeriod int) string {
	if len(bars) < longPeriod+1 {
		return "none"
	}

	shortSMA := SMA(bars, shortPeriod)
	longSMA := SMA(bars, longPeriod)

	prev := bars[:len(bars)-1]
	prevShortSMA := SMA(prev, shortPeriod)
	prevLongSMA := SMA(prev, longPeriod)

	if prevShortSMA <= prevLongSMA && shortSMA > longSMA {
		return "golden_cross"
	}
	if prevShortSMA >= prevLongSMA && shortSMA < longSMA {
		return "death_cross"
	}
	return "none"
}

// ClassifyRSI classifies an RSI value.
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// ClassifyVolume classifies volume based on its ratio to the average.
func ClassifyVolume(ratio float64) string {
	if ratio >= 2.0 {
		return "spike"
	}
	if ratio <= 0.5 {
		return "low"
	}
	return "normal"
}

// DistanceToSMA calculates percentage distance from the current price to an SMA.
func DistanceToSMA(currentPrice, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	return ((currentPrice - sma) / sma) * 100
}
