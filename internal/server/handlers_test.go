package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

type stubLedger struct {
	portfolio *models.Portfolio
	snapshots []models.PortfolioSnapshot
	trades    []*models.Trade
	stats     *models.TradingStats
	snapCalls int
}

func (s *stubLedger) Initialize(ctx context.Context, initialBalance float64) (*models.Portfolio, error) {
	if s.portfolio == nil {
		s.portfolio = &models.Portfolio{
			CashBalance:    initialBalance,
			InitialBalance: initialBalance,
			Holdings:       map[string]models.Holding{},
		}
	}
	return s.portfolio, nil
}

func (s *stubLedger) Portfolio(ctx context.Context) (*models.Portfolio, error) {
	return s.portfolio, nil
}

func (s *stubLedger) CommitTrade(ctx context.Context, trade *models.Trade) (*models.Portfolio, error) {
	return s.portfolio, nil
}

func (s *stubLedger) RecordRejectedTrade(ctx context.Context, trade *models.Trade) error {
	return nil
}

func (s *stubLedger) UpdateHoldingPrices(ctx context.Context, quotes map[string]*models.Quote) error {
	return nil
}

func (s *stubLedger) Snapshot(ctx context.Context, now time.Time) (*models.PortfolioSnapshot, error) {
	s.snapCalls++
	return &models.PortfolioSnapshot{Timestamp: now.UTC().Truncate(time.Second), TotalValue: s.portfolio.TotalValue()}, nil
}

func (s *stubLedger) ChartData(ctx context.Context, days int) ([]models.PortfolioSnapshot, error) {
	return s.snapshots, nil
}

func (s *stubLedger) Trades(ctx context.Context, limit int) ([]*models.Trade, error) {
	if limit < len(s.trades) {
		return s.trades[:limit], nil
	}
	return s.trades, nil
}

func (s *stubLedger) Stats(ctx context.Context) (*models.TradingStats, error) {
	return s.stats, nil
}

type stubMarket struct {
	quote *models.Quote
	err   error
}

func (s *stubMarket) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func (s *stubMarket) GetHistory(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	return nil, nil
}

type stubExecutor struct {
	symbols []string
}

func (s *stubExecutor) RunCycle(ctx context.Context, symbol string) (*models.CycleResult, error) {
	s.symbols = append(s.symbols, symbol)
	return &models.CycleResult{Symbol: symbol, Outcome: models.CycleHold}, nil
}

func testServer(jwtSecret string) (*Server, *stubLedger, *stubExecutor) {
	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = jwtSecret
	config.Trading.Symbols = []string{"AAPL", "MSFT"}

	ledger := &stubLedger{
		portfolio: &models.Portfolio{
			CashBalance:    5.0,
			InitialBalance: 20.0,
			Holdings: map[string]models.Holding{
				"AAPL": {Symbol: "AAPL", Quantity: 2, AvgCost: 7.5, LastPrice: 10.0},
			},
			DailyTradeCount: 1,
		},
		stats: &models.TradingStats{TotalTrades: 3, ExecutedTrades: 2, RejectedTrades: 1},
	}
	executor := &stubExecutor{}
	market := &stubMarket{quote: &models.Quote{Symbol: "AAPL", Price: 10.0, AsOf: time.Now()}}

	srv := NewServer(config, common.NewSilentLogger(), ledger, market, executor)
	return srv, ledger, executor
}

func doRequest(srv *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestPortfolioSummary(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodGet, "/api/portfolio/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Cash 5 + 2 shares at 10 = 25 total on a 20 initial balance.
	assert.Equal(t, 25.0, resp.TotalValue)
	assert.Equal(t, 5.0, resp.TotalReturn)
	assert.InDelta(t, 0.25, resp.TotalReturnPct, 1e-9)
	assert.Equal(t, 1, resp.HoldingCount)
}

func TestPortfolioHoldings(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodGet, "/api/portfolio/holdings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Holdings []holdingResponse `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Holdings, 1)

	h := resp.Holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, 20.0, h.MarketValue)
	assert.InDelta(t, 1.0/3.0, h.UnrealizedReturnPct, 1e-9)
}

func TestTradesLimit(t *testing.T) {
	srv, ledger, _ := testServer("")
	for i := 0; i < 5; i++ {
		ledger.trades = append(ledger.trades, &models.Trade{ID: fmt.Sprintf("t%d", i)})
	}

	rec := doRequest(srv, http.MethodGet, "/api/trades?limit=3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []*models.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Trades, 3)
}

func TestSnapshotRequiresAuth(t *testing.T) {
	srv, ledger, _ := testServer("test-secret")

	rec := doRequest(srv, http.MethodPost, "/api/portfolio/snapshot", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, ledger.snapCalls)

	token, err := SignToken("test-secret", "admin", time.Hour)
	require.NoError(t, err)

	rec = doRequest(srv, http.MethodPost, "/api/portfolio/snapshot", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledger.snapCalls)
}

func TestSnapshotRejectsBadToken(t *testing.T) {
	srv, _, _ := testServer("test-secret")

	token, err := SignToken("wrong-secret", "admin", time.Hour)
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/api/portfolio/snapshot", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSnapshotOpenWithoutSecret(t *testing.T) {
	srv, ledger, _ := testServer("")

	rec := doRequest(srv, http.MethodPost, "/api/portfolio/snapshot", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledger.snapCalls)
}

func TestInitializeValidatesBalance(t *testing.T) {
	srv, _, _ := testServer("")

	body, _ := json.Marshal(map[string]float64{"initial_balance": -5})
	rec := doRequest(srv, http.MethodPost, "/api/portfolio/initialize", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBotCycleRunsConfiguredSymbols(t *testing.T) {
	srv, _, executor := testServer("")

	rec := doRequest(srv, http.MethodPost, "/api/bot/cycle", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"AAPL", "MSFT"}, executor.symbols)
}

func TestBotCycleSingleSymbol(t *testing.T) {
	srv, _, executor := testServer("")

	body, _ := json.Marshal(map[string]string{"symbol": "nvda"})
	rec := doRequest(srv, http.MethodPost, "/api/bot/cycle", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"NVDA"}, executor.symbols)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodPost, "/api/portfolio", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestStockRequiresSymbol(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodGet, "/api/stocks/", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockReturnsQuote(t *testing.T) {
	srv, _, _ := testServer("")

	rec := doRequest(srv, http.MethodGet, "/api/stocks/AAPL", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Quote models.Quote `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Quote.Symbol)
	assert.Equal(t, 10.0, resp.Quote.Price)
}

func TestBotConfigHidesSecrets(t *testing.T) {
	srv, _, _ := testServer("super-secret")

	rec := doRequest(srv, http.MethodGet, "/api/bot/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret")
}
