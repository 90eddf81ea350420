// Package market provides validated market data with provider fallback.
package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// quoteCacheTTL bounds how stale a served quote can be. One minute matches
// the shortest useful decision interval.
const quoteCacheTTL = time.Minute

// Service fetches quotes and history, trying the primary source first and
// falling back to the secondary. Successful quotes are cached in memory for
// quoteCacheTTL and persisted for valuation reuse.
type Service struct {
	primary  interfaces.QuoteClient
	fallback interfaces.QuoteClient
	store    interfaces.MarketStore
	logger   *common.Logger
	retry    retryPolicy

	mu    sync.Mutex
	cache map[string]*models.Quote

	// now and sleep are swappable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewService creates a market data service. fallback and store may be nil.
func NewService(primary, fallback interfaces.QuoteClient, store interfaces.MarketStore, logger *common.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		store:    store,
		logger:   logger,
		retry:    defaultRetryPolicy(),
		cache:    make(map[string]*models.Quote),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// GetQuote returns the current price for a symbol. A cached quote younger
// than quoteCacheTTL is served without an upstream call.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(symbol)

	if q := s.cachedQuote(symbol); q != nil {
		return q, nil
	}

	var lastErr error
	for _, client := range s.sources() {
		q, err := s.fetchQuote(ctx, client, symbol)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Str("symbol", symbol).Str("source", client.Name()).Msg("Quote fetch failed")
			continue
		}

		s.storeQuote(ctx, q)
		return q, nil
	}

	// A cancelled cycle is not a data outage; let the caller terminate
	// without recording a rejection.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("quote for %s: %w: %v", symbol, models.ErrDataUnavailable, lastErr)
}

// GetHistory returns daily bars for the trailing lookback window, oldest
// first, at most one bar per calendar day.
func (s *Service) GetHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.PriceBar, error) {
	symbol = strings.ToUpper(symbol)

	var lastErr error
	for _, client := range s.sources() {
		bars, err := s.fetchHistory(ctx, client, symbol, lookbackDays)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Str("symbol", symbol).Str("source", client.Name()).Msg("History fetch failed")
			continue
		}

		return normalizeBars(bars, lookbackDays), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("history for %s: %w: %v", symbol, models.ErrDataUnavailable, lastErr)
}

func (s *Service) sources() []interfaces.QuoteClient {
	clients := make([]interfaces.QuoteClient, 0, 2)
	if s.primary != nil {
		clients = append(clients, s.primary)
	}
	if s.fallback != nil {
		clients = append(clients, s.fallback)
	}
	return clients
}

// fetchQuote tries one source with bounded retry and validates the result.
func (s *Service) fetchQuote(ctx context.Context, client interfaces.QuoteClient, symbol string) (*models.Quote, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		q, err := client.GetQuote(ctx, symbol)
		if err == nil {
			if q == nil || q.Price <= 0 {
				return nil, fmt.Errorf("source %s returned unusable quote", client.Name())
			}
			return q, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if d := s.retry.Delay(attempt); d > 0 {
			s.sleep(d)
		}
	}
	return nil, lastErr
}

// fetchHistory tries one source with the same bounded retry as quotes.
func (s *Service) fetchHistory(ctx context.Context, client interfaces.QuoteClient, symbol string, days int) ([]models.PriceBar, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		bars, err := client.GetDailyHistory(ctx, symbol, days)
		if err == nil {
			if len(bars) == 0 {
				return nil, fmt.Errorf("empty history from %s", client.Name())
			}
			return bars, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if d := s.retry.Delay(attempt); d > 0 {
			s.sleep(d)
		}
	}
	return nil, lastErr
}

func (s *Service) cachedQuote(symbol string) *models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.cache[symbol]
	if !ok || s.now().Sub(q.AsOf) > quoteCacheTTL {
		return nil
	}
	return q
}

func (s *Service) storeQuote(ctx context.Context, q *models.Quote) {
	s.mu.Lock()
	s.cache[q.Symbol] = q
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveQuote(ctx, q); err != nil {
			s.logger.Warn().Err(err).Str("symbol", q.Symbol).Msg("Failed to persist quote")
		}
	}
}

// normalizeBars dedupes by calendar day (latest wins), sorts oldest first,
// and trims to the lookback window.
func normalizeBars(bars []models.PriceBar, lookbackDays int) []models.PriceBar {
	byDay := make(map[string]models.PriceBar, len(bars))
	for _, b := range bars {
		byDay[b.Date.Format("2006-01-02")] = b
	}

	out := make([]models.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	if lookbackDays > 0 && len(out) > lookbackDays {
		out = out[len(out)-lookbackDays:]
	}
	return out
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
