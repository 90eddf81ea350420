// Package server exposes the bot and portfolio over a REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
)

// Server wraps the HTTP server and the services it exposes. It depends on
// interfaces rather than the app wiring so handlers are testable with fakes.
type Server struct {
	config   *common.Config
	logger   *common.Logger
	ledger   interfaces.LedgerService
	market   interfaces.MarketService
	executor interfaces.TradeExecutor
	server   *http.Server
}

// NewServer creates a new HTTP REST API server.
func NewServer(config *common.Config, logger *common.Logger, ledger interfaces.LedgerService, market interfaces.MarketService, executor interfaces.TradeExecutor) *Server {
	s := &Server{
		config:   config,
		logger:   logger,
		ledger:   ledger,
		market:   market,
		executor: executor,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger, config)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/portfolio/summary", s.handlePortfolioSummary)
	mux.HandleFunc("/api/portfolio/holdings", s.handlePortfolioHoldings)
	mux.HandleFunc("/api/portfolio/history", s.handlePortfolioHistory)
	mux.HandleFunc("/api/portfolio/chart-data", s.handlePortfolioHistory)
	mux.HandleFunc("/api/portfolio/chart.png", s.handlePortfolioChart)
	mux.HandleFunc("/api/portfolio/stats", s.handlePortfolioStats)
	mux.HandleFunc("/api/portfolio/snapshot", s.requireAuth(s.handleSnapshot))
	mux.HandleFunc("/api/portfolio/initialize", s.requireAuth(s.handleInitialize))

	// Trades
	mux.HandleFunc("/api/trades", s.handleTrades)

	// Market
	mux.HandleFunc("/api/stocks/", s.handleStock)

	// Bot
	mux.HandleFunc("/api/bot/config", s.handleBotConfig)
	mux.HandleFunc("/api/bot/cycle", s.requireAuth(s.handleBotCycle))
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
