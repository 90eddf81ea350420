// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co/query"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per minute (free tier)
)

// Client implements the QuoteClient interface against Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit in requests per minute
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(DefaultRateLimit)/60.0), 1),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the source in logs and quote records.
func (c *Client) Name() string { return "alphavantage" }

// APIError represents an API-level failure, including rate-limit notices which
// Alpha Vantage reports inside a 200 response.
type APIError struct {
	StatusCode int
	Message    string
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// get performs a rate-limited GET request for one API function.
func (c *Client) get(ctx context.Context, function, symbol string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", function).Str("symbol", symbol).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Function:   function,
		}
	}

	// Rate-limit and error notices come back as 200 with a message field.
	var notice struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &notice); err == nil {
		if msg := firstNonEmpty(notice.ErrorMessage, notice.Note, notice.Information); msg != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    msg,
				Function:   function,
			}
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// globalQuoteResponse represents the GLOBAL_QUOTE payload. All numeric fields
// arrive as strings.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// GetQuote fetches the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var resp globalQuoteResponse
	if err := c.get(ctx, "GLOBAL_QUOTE", symbol, &resp); err != nil {
		return nil, err
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil || price <= 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("no usable price for %s", symbol),
			Function:   "GLOBAL_QUOTE",
		}
	}

	volume, _ := strconv.ParseInt(resp.GlobalQuote.Volume, 10, 64)
	changePct, _ := strconv.ParseFloat(strings.TrimSuffix(resp.GlobalQuote.ChangePercent, "%"), 64)

	return &models.Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     price,
		ChangePct: changePct,
		Volume:    volume,
		AsOf:      time.Now(),
		Source:    c.Name(),
	}, nil
}

// dailySeriesResponse represents the TIME_SERIES_DAILY payload.
type dailySeriesResponse struct {
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// GetDailyHistory fetches up to days of daily bars, oldest first.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	var resp dailySeriesResponse
	if err := c.get(ctx, "TIME_SERIES_DAILY", symbol, &resp); err != nil {
		return nil, err
	}

	if len(resp.Series) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("empty daily series for %s", symbol),
			Function:   "TIME_SERIES_DAILY",
		}
	}

	bars := make([]models.PriceBar, 0, len(resp.Series))
	for dateStr, bar := range resp.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(bar.Open, 64)
		high, _ := strconv.ParseFloat(bar.High, 64)
		low, _ := strconv.ParseFloat(bar.Low, 64)
		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		volume, _ := strconv.ParseInt(bar.Volume, 10, 64)

		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}

	return bars, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
