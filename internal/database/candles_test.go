package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

func testCandle(symbol string, minute int, close string) models.Candle {
	open := time.Date(2024, 1, 15, 10, minute, 0, 0, time.UTC)
	c := decimal.RequireFromString(close)
	return models.Candle{
		Symbol:    symbol,
		OpenTime:  open,
		CloseTime: open.Add(time.Minute - time.Millisecond),
		Open:      c.Sub(decimal.NewFromInt(1)),
		High:      c.Add(decimal.NewFromInt(2)),
		Low:       c.Sub(decimal.NewFromInt(2)),
		Close:     c,
		Volume:    decimal.RequireFromString("12.5"),
	}
}

func TestCandleRepository(t *testing.T) {
	testDB := newTestDB(t)
	ctx := context.Background()

	t.Run("UpsertCandles stores candles", func(t *testing.T) {
		testDB.reset(t)

		err := testDB.UpsertCandles(ctx, []models.Candle{
			testCandle("BTCUSDT", 0, "42000.5"),
			testCandle("BTCUSDT", 1, "42010.25"),
		})
		require.NoError(t, err)

		candles, err := testDB.GetCandles(ctx, "BTCUSDT", 10)
		require.NoError(t, err)
		require.Len(t, candles, 2)
		assert.True(t, decimal.RequireFromString("42000.5").Equal(candles[0].Close))
		assert.True(t, decimal.RequireFromString("12.5").Equal(candles[0].Volume))
		assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), candles[0].OpenTime)
	})

	t.Run("UpsertCandles replaces on conflict", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.UpsertCandles(ctx, []models.Candle{testCandle("BTCUSDT", 0, "100")}))
		require.NoError(t, testDB.UpsertCandles(ctx, []models.Candle{testCandle("BTCUSDT", 0, "105")}))

		candles, err := testDB.GetCandles(ctx, "BTCUSDT", 10)
		require.NoError(t, err)
		require.Len(t, candles, 1)
		assert.True(t, decimal.NewFromInt(105).Equal(candles[0].Close))
	})

	t.Run("UpsertCandles with empty input is a no-op", func(t *testing.T) {
		assert.NoError(t, testDB.UpsertCandles(ctx, nil))
	})

	t.Run("GetCandles returns most recent candles ascending", func(t *testing.T) {
		testDB.reset(t)

		var batch []models.Candle
		for i := 5; i >= 0; i-- {
			batch = append(batch, testCandle("ETHUSDT", i, "2000"))
		}
		batch = append(batch, testCandle("BTCUSDT", 0, "42000"))
		require.NoError(t, testDB.UpsertCandles(ctx, batch))

		candles, err := testDB.GetCandles(ctx, "ETHUSDT", 3)
		require.NoError(t, err)
		require.Len(t, candles, 3)
		assert.Equal(t, 3, candles[0].OpenTime.Minute())
		assert.Equal(t, 4, candles[1].OpenTime.Minute())
		assert.Equal(t, 5, candles[2].OpenTime.Minute())
		for _, c := range candles {
			assert.Equal(t, "ETHUSDT", c.Symbol)
		}
	})

	t.Run("GetCandles returns empty slice for unknown symbol", func(t *testing.T) {
		testDB.reset(t)

		candles, err := testDB.GetCandles(ctx, "UNKNOWN", 10)
		require.NoError(t, err)
		assert.NotNil(t, candles)
		assert.Empty(t, candles)
	})

	t.Run("GetLatestCandle returns newest candle", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.UpsertCandles(ctx, []models.Candle{
			testCandle("BTCUSDT", 7, "101"),
			testCandle("BTCUSDT", 9, "103"),
			testCandle("BTCUSDT", 8, "102"),
		}))

		latest, err := testDB.GetLatestCandle(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, 9, latest.OpenTime.Minute())
		assert.True(t, decimal.NewFromInt(103).Equal(latest.Close))
	})

	t.Run("GetLatestCandle returns ErrNotFound", func(t *testing.T) {
		testDB.reset(t)

		_, err := testDB.GetLatestCandle(ctx, "BTCUSDT")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("DeleteCandlesOlderThan removes old candles", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.UpsertCandles(ctx, []models.Candle{
			testCandle("BTCUSDT", 0, "100"),
			testCandle("BTCUSDT", 1, "101"),
			testCandle("BTCUSDT", 2, "102"),
		}))

		deleted, err := testDB.DeleteCandlesOlderThan(ctx, time.Date(2024, 1, 15, 10, 2, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		candles, err := testDB.GetCandles(ctx, "BTCUSDT", 10)
		require.NoError(t, err)
		assert.Len(t, candles, 1)
	})
}

func TestCurrentPriceRepository(t *testing.T) {
	testDB := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("UpsertCurrentPrice stores and updates", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.UpsertCurrentPrice(ctx, &models.CurrentPrice{
			Symbol: "BTCUSDT", Price: decimal.RequireFromString("42000.12345678"), UpdatedAt: now,
		}))
		require.NoError(t, testDB.UpsertCurrentPrice(ctx, &models.CurrentPrice{
			Symbol: "BTCUSDT", Price: decimal.NewFromInt(42100), UpdatedAt: now.Add(time.Minute),
		}))

		p, err := testDB.GetCurrentPrice(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(42100).Equal(p.Price))
		assert.Equal(t, now.Add(time.Minute), p.UpdatedAt)
	})

	t.Run("UpsertCurrentPrice keeps the newer price", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.UpsertCurrentPrice(ctx, &models.CurrentPrice{
			Symbol: "BTCUSDT", Price: decimal.NewFromInt(2), UpdatedAt: now.Add(time.Minute),
		}))
		require.NoError(t, testDB.UpsertCurrentPrice(ctx, &models.CurrentPrice{
			Symbol: "BTCUSDT", Price: decimal.NewFromInt(1), UpdatedAt: now,
		}))

		p, err := testDB.GetCurrentPrice(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2).Equal(p.Price))
	})

	t.Run("GetCurrentPrice returns ErrNotFound", func(t *testing.T) {
		testDB.reset(t)

		_, err := testDB.GetCurrentPrice(ctx, "BTCUSDT")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
