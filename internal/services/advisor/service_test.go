package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

type fakeInference struct {
	response string
	err      error
	prompt   string
}

func (f *fakeInference) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testQuote() *models.Quote {
	return &models.Quote{Symbol: "AAPL", Price: 150.0, AsOf: time.Now()}
}

func TestRecommendParsesResponse(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantAction     models.TradeAction
		wantConfidence float64
	}{
		{
			name:           "plain JSON",
			response:       `{"action": "BUY", "confidence": 0.8, "rationale": "uptrend"}`,
			wantAction:     models.ActionBuy,
			wantConfidence: 0.8,
		},
		{
			name:           "code fenced",
			response:       "```json\n{\"action\": \"SELL\", \"confidence\": 0.7, \"rationale\": \"overbought\"}\n```",
			wantAction:     models.ActionSell,
			wantConfidence: 0.7,
		},
		{
			name:           "lowercase action",
			response:       `{"action": "hold", "confidence": 0.5, "rationale": "no signal"}`,
			wantAction:     models.ActionHold,
			wantConfidence: 0.5,
		},
		{
			name:           "confidence clamped above one",
			response:       `{"action": "BUY", "confidence": 1.7, "rationale": "very sure"}`,
			wantAction:     models.ActionBuy,
			wantConfidence: 1.0,
		},
		{
			name:           "confidence clamped below zero",
			response:       `{"action": "HOLD", "confidence": -0.3, "rationale": "unsure"}`,
			wantAction:     models.ActionHold,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeInference{response: tt.response}
			s := NewService(client, common.NewSilentLogger())

			rec, err := s.Recommend(context.Background(), "AAPL", testQuote(), nil, nil)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if rec.Action != tt.wantAction {
				t.Errorf("action = %s, want %s", rec.Action, tt.wantAction)
			}
			if rec.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %.2f, want %.2f", rec.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestRecommendUnparseableResponse(t *testing.T) {
	for _, response := range []string{
		"I think you should buy.",
		`{"action": "MAYBE", "confidence": 0.5}`,
		"",
	} {
		client := &fakeInference{response: response}
		s := NewService(client, common.NewSilentLogger())

		_, err := s.Recommend(context.Background(), "AAPL", testQuote(), nil, nil)
		if !errors.Is(err, models.ErrAdvisorUnavailable) {
			t.Errorf("response %q: error = %v, want ErrAdvisorUnavailable", response, err)
		}
	}
}

func TestRecommendBackendFailure(t *testing.T) {
	client := &fakeInference{err: errors.New("model overloaded")}
	s := NewService(client, common.NewSilentLogger())

	_, err := s.Recommend(context.Background(), "AAPL", testQuote(), nil, nil)
	if !errors.Is(err, models.ErrAdvisorUnavailable) {
		t.Errorf("error = %v, want ErrAdvisorUnavailable", err)
	}
}

func TestRecommendDowngradesBelowFloor(t *testing.T) {
	client := &fakeInference{response: `{"action": "BUY", "confidence": 0.4, "rationale": "weak signal"}`}
	s := NewService(client, common.NewSilentLogger(), WithConfidenceFloor(0.6))

	rec, err := s.Recommend(context.Background(), "AAPL", testQuote(), nil, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Action != models.ActionHold {
		t.Errorf("action = %s, want HOLD (downgraded)", rec.Action)
	}
	if rec.Confidence != 0.4 {
		t.Errorf("confidence = %.2f, want 0.4 (preserved)", rec.Confidence)
	}
}

func TestRecommendHoldNeverDowngraded(t *testing.T) {
	client := &fakeInference{response: `{"action": "HOLD", "confidence": 0.1, "rationale": "nothing to do"}`}
	s := NewService(client, common.NewSilentLogger(), WithConfidenceFloor(0.6))

	rec, err := s.Recommend(context.Background(), "AAPL", testQuote(), nil, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Action != models.ActionHold {
		t.Errorf("action = %s, want HOLD", rec.Action)
	}
}

func TestPromptBoundsHistory(t *testing.T) {
	var history []models.PriceBar
	for d := 0; d < 90; d++ {
		history = append(history, models.PriceBar{
			Date:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d),
			Close: 100 + float64(d),
		})
	}

	client := &fakeInference{response: `{"action": "HOLD", "confidence": 0.5, "rationale": "ok"}`}
	s := NewService(client, common.NewSilentLogger())

	portfolio := &models.Portfolio{
		CashBalance: 20.0,
		Holdings:    map[string]models.Holding{},
	}

	if _, err := s.Recommend(context.Background(), "AAPL", testQuote(), history, portfolio); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	lines := strings.Count(client.prompt, "\n")
	if lines > 60 {
		t.Errorf("prompt has %d lines, history not bounded", lines)
	}
	if !strings.Contains(client.prompt, "Cash available: $20.00") {
		t.Errorf("prompt missing cash context:\n%s", client.prompt)
	}
	// oldest bars trimmed, newest kept
	if strings.Contains(client.prompt, "2026-01-01") {
		t.Errorf("prompt contains oldest bar, should be trimmed")
	}
	if !strings.Contains(client.prompt, "2026-03-31") {
		t.Errorf("prompt missing newest bar")
	}
}
