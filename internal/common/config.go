// Package common provides shared utilities for StockBot
package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// Config holds all configuration for StockBot
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Trading     TradingConfig `toml:"trading"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
	Gemini       GeminiConfig       `toml:"gemini"`
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per minute
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the inference timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// TradingConfig holds the bot's trading parameters. Immutable for the life of
// a running instance.
type TradingConfig struct {
	Symbols          []string `toml:"symbols"`
	InitialBalance   float64  `toml:"initial_balance"`
	MaxDailyTrades   int      `toml:"max_daily_trades"`
	RiskTolerance    string   `toml:"risk_tolerance"`
	MaxPositionPct   float64  `toml:"max_position_pct"`
	ConfidenceFloor  float64  `toml:"confidence_floor"`
	MinCashReserve   float64  `toml:"min_cash_reserve"`
	StopLossPct      float64  `toml:"stop_loss_pct"`
	TakeProfitPct    float64  `toml:"take_profit_pct"`
	WindowStart      string   `toml:"window_start"` // "HH:MM"
	WindowEnd        string   `toml:"window_end"`   // "HH:MM"
	Timezone         string   `toml:"timezone"`
	TickInterval     string   `toml:"tick_interval"`
	SnapshotInterval string   `toml:"snapshot_interval"`
	HistoryDays      int      `toml:"history_days"`
}

// GetTickInterval parses the decision-cycle cadence.
func (c *TradingConfig) GetTickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetSnapshotInterval parses the snapshot cadence.
func (c *TradingConfig) GetSnapshotInterval() time.Duration {
	d, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// RiskProfile builds the models.RiskProfile from trading config.
func (c *TradingConfig) RiskProfile() models.RiskProfile {
	tolerance := models.RiskTolerance(strings.ToUpper(c.RiskTolerance))
	switch tolerance {
	case models.RiskToleranceLow, models.RiskToleranceMedium, models.RiskToleranceHigh:
	default:
		tolerance = models.RiskToleranceMedium
	}
	return models.RiskProfile{
		Tolerance:       tolerance,
		MaxDailyTrades:  c.MaxDailyTrades,
		MaxPositionPct:  c.MaxPositionPct,
		ConfidenceFloor: c.ConfidenceFloor,
		MinCashReserve:  c.MinCashReserve,
		StopLossPct:     c.StopLossPct,
		TakeProfitPct:   c.TakeProfitPct,
	}
}

// TradingWindow builds the models.TradingWindow from the "HH:MM" strings.
func (c *TradingConfig) TradingWindow() models.TradingWindow {
	sh, sm := parseClock(c.WindowStart, 9, 30)
	eh, em := parseClock(c.WindowEnd, 16, 0)
	return models.TradingWindow{
		StartHour:   sh,
		StartMinute: sm,
		EndHour:     eh,
		EndMinute:   em,
		Timezone:    c.Timezone,
	}
}

func parseClock(s string, defHour, defMin int) (int, int) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return defHour, defMin
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return defHour, defMin
	}
	return h, m
}

// AuthConfig holds JWT configuration for the mutating API endpoints.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000",
			Namespace: "stockbot",
			Database:  "stockbot",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			AlphaVantage: AlphaVantageConfig{
				BaseURL:   "https://www.alphavantage.co/query",
				RateLimit: 5,
				Timeout:   "10s",
			},
			Gemini: GeminiConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "30s",
			},
		},
		Trading: TradingConfig{
			Symbols:          []string{"AAPL", "MSFT", "GOOGL"},
			InitialBalance:   20.00,
			MaxDailyTrades:   5,
			RiskTolerance:    "MEDIUM",
			MaxPositionPct:   0.20,
			MinCashReserve:   5.00,
			StopLossPct:      -0.10,
			TakeProfitPct:    0.15,
			WindowStart:      "09:30",
			WindowEnd:        "16:00",
			Timezone:         "America/New_York",
			TickInterval:     "5m",
			SnapshotInterval: "15m",
			HistoryDays:      30,
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKBOT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKBOT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKBOT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKBOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("STOCKBOT_DB_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if ns := os.Getenv("STOCKBOT_DB_NAMESPACE"); ns != "" {
		config.Storage.Namespace = ns
	}
	if db := os.Getenv("STOCKBOT_DB_DATABASE"); db != "" {
		config.Storage.Database = db
	}
	if user := os.Getenv("STOCKBOT_DB_USERNAME"); user != "" {
		config.Storage.Username = user
	}
	if pass := os.Getenv("STOCKBOT_DB_PASSWORD"); pass != "" {
		config.Storage.Password = pass
	}

	if v := os.Getenv("STOCKBOT_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("STOCKBOT_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if symbols := os.Getenv("STOCKBOT_SYMBOLS"); symbols != "" {
		var list []string
		for _, s := range strings.Split(symbols, ",") {
			if s = strings.TrimSpace(strings.ToUpper(s)); s != "" {
				list = append(list, s)
			}
		}
		if len(list) > 0 {
			config.Trading.Symbols = list
		}
	}

	if v := os.Getenv("STOCKBOT_INITIAL_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.Trading.InitialBalance = f
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment, the system KV store, or
// the config fallback, in that order.
func ResolveAPIKey(ctx context.Context, store interfaces.InternalStore, name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"alphavantage_api_key": {"ALPHAVANTAGE_API_KEY", "STOCKBOT_ALPHAVANTAGE_API_KEY"},
		"gemini_api_key":       {"GEMINI_API_KEY", "STOCKBOT_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	// Check environment variables first (highest priority)
	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try the system KV store (medium priority)
	if store != nil {
		apiKey, err := store.GetSystemKV(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback (lowest priority)
	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or store", name)
}
