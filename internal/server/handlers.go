package server

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
	"github.com/djratlif/StockBot/internal/services/ledger"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// handlePortfolio handles GET /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.ledger.Portfolio(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// summaryResponse is the dashboard headline view of the portfolio.
type summaryResponse struct {
	TotalValue     float64 `json:"total_value"`
	CashBalance    float64 `json:"cash_balance"`
	HoldingsValue  float64 `json:"holdings_value"`
	InitialBalance float64 `json:"initial_balance"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	HoldingCount   int     `json:"holding_count"`
	DailyTrades    int     `json:"daily_trades"`
}

// handlePortfolioSummary handles GET /api/portfolio/summary.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.ledger.Portfolio(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totalValue := p.TotalValue()
	totalReturn := totalValue - p.InitialBalance
	returnPct := 0.0
	if p.InitialBalance > 0 {
		returnPct = totalReturn / p.InitialBalance
	}

	WriteJSON(w, http.StatusOK, summaryResponse{
		TotalValue:     totalValue,
		CashBalance:    p.CashBalance,
		HoldingsValue:  p.HoldingsValue(),
		InitialBalance: p.InitialBalance,
		TotalReturn:    totalReturn,
		TotalReturnPct: returnPct,
		HoldingCount:   len(p.Holdings),
		DailyTrades:    p.DailyTradeCount,
	})
}

// holdingResponse is one position with derived valuation fields.
type holdingResponse struct {
	Symbol              string  `json:"symbol"`
	Quantity            int64   `json:"quantity"`
	AvgCost             float64 `json:"avg_cost"`
	LastPrice           float64 `json:"last_price"`
	MarketValue         float64 `json:"market_value"`
	UnrealizedReturnPct float64 `json:"unrealized_return_pct"`
}

// handlePortfolioHoldings handles GET /api/portfolio/holdings.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.ledger.Portfolio(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	holdings := make([]holdingResponse, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		holdings = append(holdings, holdingResponse{
			Symbol:              h.Symbol,
			Quantity:            h.Quantity,
			AvgCost:             h.AvgCost,
			LastPrice:           h.LastPrice,
			MarketValue:         h.MarketValue(),
			UnrealizedReturnPct: h.UnrealizedReturnPct(),
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	WriteJSON(w, http.StatusOK, map[string]interface{}{"holdings": holdings})
}

// handlePortfolioHistory handles GET /api/portfolio/history and
// /api/portfolio/chart-data. Returns snapshots for the trailing window.
func (s *Server) handlePortfolioHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	days := QueryInt(r, "days", 30)
	snapshots, err := s.ledger.ChartData(r.Context(), days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []models.PortfolioSnapshot{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days":      days,
		"snapshots": snapshots,
	})
}

// handlePortfolioChart handles GET /api/portfolio/chart.png.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	days := QueryInt(r, "days", 30)
	snapshots, err := s.ledger.ChartData(r.Context(), days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(snapshots) < 2 {
		WriteError(w, http.StatusNotFound, "Not enough snapshot data to chart")
		return
	}

	p, err := s.ledger.Portfolio(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	png, err := ledger.RenderValueChart(snapshots, p.InitialBalance)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handlePortfolioStats handles GET /api/portfolio/stats.
func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// handleSnapshot handles POST /api/portfolio/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	snap, err := s.ledger.Snapshot(r.Context(), time.Now())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// handleInitialize handles POST /api/portfolio/initialize. Creating is
// idempotent: an existing portfolio is returned unchanged.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := struct {
		InitialBalance float64 `json:"initial_balance"`
	}{InitialBalance: s.config.Trading.InitialBalance}

	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}
	if req.InitialBalance <= 0 {
		WriteError(w, http.StatusBadRequest, "initial_balance must be positive")
		return
	}

	p, err := s.ledger.Initialize(r.Context(), req.InitialBalance)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handleTrades handles GET /api/trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := QueryInt(r, "limit", 50)
	trades, err := s.ledger.Trades(r.Context(), limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

// handleStock handles GET /api/stocks/{symbol}.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.ToUpper(PathParam(r, "/api/stocks/", ""))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	quote, err := s.market.GetQuote(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := map[string]interface{}{"quote": quote}

	if days := QueryInt(r, "history", 0); days > 0 {
		history, err := s.market.GetHistory(r.Context(), symbol, days)
		if err == nil {
			resp["history"] = history
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleBotConfig handles GET /api/bot/config. Secrets never appear here.
func (s *Server) handleBotConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trading := s.config.Trading
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":           trading.Symbols,
		"initial_balance":   trading.InitialBalance,
		"risk_profile":      trading.RiskProfile(),
		"window":            trading.TradingWindow(),
		"tick_interval":     trading.GetTickInterval().String(),
		"snapshot_interval": trading.GetSnapshotInterval().String(),
	})
}

// handleBotCycle handles POST /api/bot/cycle: runs one decision cycle on
// demand, for one symbol or for every configured symbol in order.
func (s *Server) handleBotCycle(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := struct {
		Symbol string `json:"symbol"`
	}{}
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}

	symbols := s.config.Trading.Symbols
	if req.Symbol != "" {
		symbols = []string{strings.ToUpper(req.Symbol)}
	}
	if len(symbols) == 0 {
		WriteError(w, http.StatusBadRequest, "No symbols configured")
		return
	}

	results := make([]*models.CycleResult, 0, len(symbols))
	for _, symbol := range symbols {
		result, err := s.executor.RunCycle(r.Context(), symbol)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, result)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
