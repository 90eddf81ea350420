package signals

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/djratlif/StockBot/internal/models"
)

func barsFromCloses(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses(10, 20, 30, 40)

	if got := SMA(bars, 2); got != 35 {
		t.Errorf("SMA(2) = %v, want 35", got)
	}
	if got := SMA(bars, 4); got != 25 {
		t.Errorf("SMA(4) = %v, want 25", got)
	}
	if got := SMA(bars, 5); got != 0 {
		t.Errorf("SMA with short history = %v, want 0", got)
	}
	if got := SMA(nil, 3); got != 0 {
		t.Errorf("SMA(nil) = %v, want 0", got)
	}
}

func TestRSI(t *testing.T) {
	// Monotonic gains saturate RSI at 100.
	up := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15)
	if got := RSI(up, 14); got != 100 {
		t.Errorf("RSI all gains = %v, want 100", got)
	}

	// Monotonic losses drive RSI to 0.
	down := barsFromCloses(15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	if got := RSI(down, 14); got != 0 {
		t.Errorf("RSI all losses = %v, want 0", got)
	}

	// Not enough history defaults to neutral.
	if got := RSI(barsFromCloses(1, 2), 14); got != 50 {
		t.Errorf("RSI short history = %v, want 50", got)
	}
}

func TestEMAWeighsRecentCloses(t *testing.T) {
	flat := barsFromCloses(100, 100, 100, 100, 100)
	if got := EMA(flat, 3); math.Abs(got-100) > 0.01 {
		t.Errorf("EMA of flat series = %v, want 100", got)
	}

	rising := barsFromCloses(100, 100, 100, 110, 120)
	ema := EMA(rising, 3)
	sma := SMA(rising, 3)
	if ema <= sma {
		t.Errorf("EMA %v should exceed SMA %v on a rising tail", ema, sma)
	}
}

func TestATR(t *testing.T) {
	bars := barsFromCloses(10, 10, 10)
	// High-low range is 2 per bar and closes are flat.
	if got := ATR(bars, 2); got != 2 {
		t.Errorf("ATR = %v, want 2", got)
	}
	if got := ATR(bars, 5); got != 0 {
		t.Errorf("ATR short history = %v, want 0", got)
	}
}

func TestVolumeRatio(t *testing.T) {
	bars := barsFromCloses(10, 10, 10, 10)
	bars[len(bars)-1].Volume = 3000

	if got := VolumeRatio(bars, 4); math.Abs(got-2.0) > 0.01 {
		t.Errorf("VolumeRatio = %v, want 2.0", got)
	}
	if got := VolumeRatio(nil, 4); got != 1.0 {
		t.Errorf("VolumeRatio(nil) = %v, want 1.0", got)
	}
}

func TestDetectCrossover(t *testing.T) {
	// Short SMA crossing above long SMA on the last bar.
	golden := barsFromCloses(10, 10, 10, 10, 30)
	if got := DetectCrossover(golden, 1, 4); got != "golden_cross" {
		t.Errorf("DetectCrossover rising = %q, want golden_cross", got)
	}

	death := barsFromCloses(30, 30, 30, 30, 10)
	if got := DetectCrossover(death, 1, 4); got != "death_cross" {
		t.Errorf("DetectCrossover falling = %q, want death_cross", got)
	}

	flat := barsFromCloses(10, 10, 10, 10, 10)
	if got := DetectCrossover(flat, 1, 4); got != "none" {
		t.Errorf("DetectCrossover flat = %q, want none", got)
	}

	if got := DetectCrossover(barsFromCloses(10, 10), 1, 4); got != "none" {
		t.Errorf("DetectCrossover short history = %q, want none", got)
	}
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		rsi  float64
		want string
	}{
		{75, "overbought"},
		{70, "overbought"},
		{50, "neutral"},
		{30, "oversold"},
		{10, "oversold"},
	}
	for _, tt := range tests {
		if got := ClassifyRSI(tt.rsi); got != tt.want {
			t.Errorf("ClassifyRSI(%v) = %q, want %q", tt.rsi, got, tt.want)
		}
	}

	if got := ClassifyVolume(2.5); got != "spike" {
		t.Errorf("ClassifyVolume(2.5) = %q, want spike", got)
	}
	if got := ClassifyVolume(0.3); got != "low" {
		t.Errorf("ClassifyVolume(0.3) = %q, want low", got)
	}
	if got := ClassifyVolume(1.0); got != "normal" {
		t.Errorf("ClassifyVolume(1.0) = %q, want normal", got)
	}
}

func TestDistanceToSMA(t *testing.T) {
	if got := DistanceToSMA(110, 100); math.Abs(got-10) > 0.01 {
		t.Errorf("DistanceToSMA = %v, want 10", got)
	}
	if got := DistanceToSMA(100, 0); got != 0 {
		t.Errorf("DistanceToSMA with zero SMA = %v, want 0", got)
	}
}

func TestComputeSummary(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes...)

	s := Compute(bars, 160)

	if s.HistoryDays != 60 {
		t.Errorf("HistoryDays = %d, want 60", s.HistoryDays)
	}
	if s.SMA20 == 0 || s.SMA50 == 0 {
		t.Errorf("expected SMAs computed, got SMA20=%v SMA50=%v", s.SMA20, s.SMA50)
	}
	if s.Trend != "bullish" {
		t.Errorf("Trend = %q, want bullish for a rising series", s.Trend)
	}
	if s.RSIState != "overbought" {
		t.Errorf("RSIState = %q, want overbought for monotonic gains", s.RSIState)
	}

	desc := s.Describe()
	if !strings.Contains(desc, "Trend: bullish") {
		t.Errorf("Describe missing trend:\n%s", desc)
	}
	if !strings.Contains(desc, "RSI14:") {
		t.Errorf("Describe missing RSI:\n%s", desc)
	}
}

func TestComputeSummaryShortHistory(t *testing.T) {
	s := Compute(barsFromCloses(10, 11, 12), 12)

	if s.Trend != "unknown" {
		t.Errorf("Trend = %q, want unknown without enough history", s.Trend)
	}
	if s.RSI14 != 50 {
		t.Errorf("RSI14 = %v, want neutral 50", s.RSI14)
	}
}
