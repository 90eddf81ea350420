// Package advisor turns market context into structured trade recommendations.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
	"github.com/djratlif/StockBot/internal/signals"
)

const (
	// DefaultTimeout bounds one inference call. A cycle never waits longer
	// than this on the model.
	DefaultTimeout = 30 * time.Second

	// maxHistoryBars caps how many closes go into the prompt.
	maxHistoryBars = 30
)

// Service asks the inference backend for a recommendation and validates the
// structured response before anyone acts on it.
type Service struct {
	client          interfaces.InferenceClient
	timeout         time.Duration
	confidenceFloor float64
	logger          *common.Logger
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithTimeout sets the per-call inference timeout
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithConfidenceFloor sets the minimum confidence before a BUY or SELL is
// downgraded to HOLD
func WithConfidenceFloor(floor float64) ServiceOption {
	return func(s *Service) {
		s.confidenceFloor = floor
	}
}

// NewService creates an advisor service
func NewService(client interfaces.InferenceClient, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		client:  client,
		timeout: DefaultTimeout,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// rawRecommendation is the JSON shape the model is asked to produce.
type rawRecommendation struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Recommend issues one bounded inference call for a symbol. Any backend
// failure or unparseable response returns models.ErrAdvisorUnavailable.
func (s *Service) Recommend(ctx context.Context, symbol string, quote *models.Quote, history []models.PriceBar, portfolio *models.Portfolio) (*models.Recommendation, error) {
	prompt := buildPrompt(symbol, quote, history, portfolio)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.GenerateContent(callCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAdvisorUnavailable, err)
	}

	rec, err := parseRecommendation(text)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Unparseable advisor response")
		return nil, fmt.Errorf("%w: %v", models.ErrAdvisorUnavailable, err)
	}

	if rec.Action != models.ActionHold && rec.Confidence < s.confidenceFloor {
		s.logger.Info().
			Str("symbol", symbol).
			Str("action", string(rec.Action)).
			Float64("confidence", rec.Confidence).
			Float64("floor", s.confidenceFloor).
			Msg("Confidence below floor, downgrading to HOLD")
		rec.Action = models.ActionHold
	}

	return rec, nil
}

// buildPrompt assembles a bounded prompt: current quote, recent closes, and
// the bot's position in the symbol.
func buildPrompt(symbol string, quote *models.Quote, history []models.PriceBar, portfolio *models.Portfolio) string {
	var sb strings.Builder

	sb.WriteString("You are a cautious paper-trading assistant managing a small experimental portfolio.\n\n")

	fmt.Fprintf(&sb, "Symbol: %s\n", symbol)
	fmt.Fprintf(&sb, "Current price: $%.2f", quote.Price)
	if quote.ChangePct != 0 {
		fmt.Fprintf(&sb, " (%+.2f%% today)", quote.ChangePct)
	}
	sb.WriteString("\n")

	if len(history) > 0 {
		bars := history
		if len(bars) > maxHistoryBars {
			bars = bars[len(bars)-maxHistoryBars:]
		}
		sb.WriteString("\nRecent daily closes (oldest first):\n")
		for _, b := range bars {
			fmt.Fprintf(&sb, "%s: %.2f\n", b.Date.Format("2006-01-02"), b.Close)
		}

		sb.WriteString("\nTechnical indicators:\n")
		sb.WriteString(signals.Compute(history, quote.Price).Describe())
		sb.WriteString("\n")
	}

	if portfolio != nil {
		fmt.Fprintf(&sb, "\nCash available: $%.2f\n", portfolio.CashBalance)
		fmt.Fprintf(&sb, "Portfolio value: $%.2f\n", portfolio.TotalValue())
		if h, ok := portfolio.Holdings[symbol]; ok && h.Quantity > 0 {
			fmt.Fprintf(&sb, "Current position: %d shares at avg cost $%.2f\n", h.Quantity, h.AvgCost)
		} else {
			sb.WriteString("Current position: none\n")
		}
	}

	sb.WriteString(`
Respond with ONLY a JSON object, no other text:
{"action": "BUY" | "SELL" | "HOLD", "confidence": 0.0-1.0, "rationale": "one short sentence"}
`)

	return sb.String()
}

// parseRecommendation decodes the model response, tolerating markdown code
// fences around the JSON.
func parseRecommendation(text string) (*models.Recommendation, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))

	var raw rawRecommendation
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("invalid recommendation JSON: %w", err)
	}

	action := models.TradeAction(strings.ToUpper(strings.TrimSpace(raw.Action)))
	switch action {
	case models.ActionBuy, models.ActionSell, models.ActionHold:
	default:
		return nil, fmt.Errorf("unknown action %q", raw.Action)
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.Recommendation{
		Action:     action,
		Confidence: confidence,
		Rationale:  strings.TrimSpace(raw.Rationale),
	}, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block when present.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// Ensure Service implements AdvisorService
var _ interfaces.AdvisorService = (*Service)(nil)
