package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djratlif/StockBot/internal/models"
)

func TestPortfolioStoreRoundTrip(t *testing.T) {
	mgr := testManager(t)
	ctx := testContext()
	store := mgr.PortfolioStore()

	// Empty database has no portfolio.
	p, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	now := time.Now().UTC().Truncate(time.Second)
	want := &models.Portfolio{
		CashBalance:    20.0,
		InitialBalance: 20.0,
		Holdings: map[string]models.Holding{
			"AAPL": {Symbol: "AAPL", Quantity: 2, AvgCost: 7.5, LastPrice: 8.0, LastUpdated: now},
		},
		DailyTradeCount: 1,
		DailyCountDate:  "2026-08-31",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 20.0, got.CashBalance)
	assert.Equal(t, int64(2), got.Holdings["AAPL"].Quantity)
	assert.Equal(t, 1, got.DailyTradeCount)
	assert.Equal(t, "2026-08-31", got.DailyCountDate)
}

func TestPortfolioStoreSaveIsUpsert(t *testing.T) {
	mgr := testManager(t)
	ctx := testContext()
	store := mgr.PortfolioStore()

	p := &models.Portfolio{CashBalance: 20.0, InitialBalance: 20.0, Holdings: map[string]models.Holding{}}
	require.NoError(t, store.Save(ctx, p))

	p.CashBalance = 15.0
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.CashBalance)
}

func TestPortfolioStoreSaveWithTradeWritesBoth(t *testing.T) {
	mgr := testManager(t)
	ctx := testContext()

	p := &models.Portfolio{CashBalance: 10.0, InitialBalance: 20.0, Holdings: map[string]models.Holding{}}
	trade := &models.Trade{
		ID:          "t-1",
		Timestamp:   time.Now().UTC().Truncate(time.Second),
		Symbol:      "AAPL",
		Side:        models.TradeSideBuy,
		Quantity:    1,
		Price:       10.0,
		TotalAmount: 10.0,
		Status:      models.TradeStatusExecuted,
	}

	require.NoError(t, mgr.PortfolioStore().SaveWithTrade(ctx, p, trade))

	got, err := mgr.PortfolioStore().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.CashBalance)

	trades, err := mgr.TradeStore().All(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t-1", trades[0].ID)
	assert.Equal(t, models.TradeStatusExecuted, trades[0].Status)
}
