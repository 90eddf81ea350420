// Package yahoo provides a quote client backed by the public Yahoo Finance API
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/interfaces"
	"github.com/djratlif/StockBot/internal/models"
)

// Client implements the QuoteClient interface against Yahoo Finance. It needs
// no API key, which makes it the fallback source when the primary provider
// is throttled.
type Client struct {
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the source in logs and quote records.
func (c *Client) Name() string { return "yahoo" }

// GetQuote fetches the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo Finance quote request")

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo quote for %s: no usable price", symbol)
	}

	return &models.Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     q.RegularMarketPrice,
		ChangePct: q.RegularMarketChangePercent,
		Volume:    int64(q.RegularMarketVolume),
		AsOf:      time.Now(),
		Source:    c.Name(),
	}, nil
}

// GetDailyHistory fetches up to days of daily bars, oldest first.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	c.logger.Debug().
		Str("symbol", symbol).
		Time("start", start).
		Time("end", end).
		Msg("Yahoo Finance history request")

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var bars []models.PriceBar
	for iter.Next() {
		b := iter.Bar()
		closePrice := b.Close.InexactFloat64()
		if closePrice <= 0 {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  closePrice,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo history for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo history for %s: empty series", symbol)
	}

	return bars, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
