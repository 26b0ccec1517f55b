package analysis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

func TestAnalyze(t *testing.T) {
	t.Run("empty series yields no analysis", func(t *testing.T) {
		assert.Nil(t, Analyze("BTCUSDT", nil, baseTime))
		assert.Nil(t, Analyze("BTCUSDT", []models.Candle{}, baseTime))
	})

	t.Run("25 ascending closes with constant volume", func(t *testing.T) {
		a := Analyze("BTCUSDT", risingCandles(25), baseTime)
		require.NotNil(t, a)

		assert.Equal(t, "BTCUSDT", a.Symbol)
		assert.Equal(t, baseTime, a.AnalysisTime)
		require.True(t, a.SMA20.Valid)
		assert.True(t, d("15.5").Equal(a.SMA20.Decimal))
		require.True(t, a.EMA14.Valid)
		assert.InDelta(t, 20.388240642676465, a.EMA14.Decimal.InexactFloat64(), 1e-9)
		assert.True(t, d("100").Equal(a.RSI14.Decimal))
		assert.False(t, a.MACD.Valid)
		assert.False(t, a.MACDSignal.Valid)
		assert.False(t, a.MACDHistogram.Valid)
		assert.True(t, a.BollingerMiddle.Decimal.Equal(a.SMA20.Decimal))
		assert.True(t, d("10").Equal(a.VolumeSMA5.Decimal))
		assert.True(t, d("250").Equal(a.OBV.Decimal))
	})

	t.Run("steady rally is bullish overbought", func(t *testing.T) {
		a := Analyze("BTCUSDT", risingCandles(30), baseTime)
		require.NotNil(t, a)

		require.True(t, a.MACD.Valid)
		assert.True(t, a.MACDHistogram.Decimal.IsZero())
		assert.Equal(t, models.TrendBullishOverbought, a.OverallTrend)
		require.NotNil(t, a.TrendStrength)
		// 50 + 15 + 30 + 10 (capped at 100), then -10 as MACD equals its signal
		assert.Equal(t, 90, *a.TrendStrength)
		assert.False(t, a.Doji)
		assert.False(t, a.HammerPattern)
		assert.False(t, a.EngulfingPattern)
		assert.Empty(t, a.SupportLevels)
		assert.Empty(t, a.ResistanceLevels)
	})

	t.Run("short series leaves indicators undefined", func(t *testing.T) {
		a := Analyze("ETHUSDT", risingCandles(4), baseTime)
		require.NotNil(t, a)
		assert.False(t, a.SMA20.Valid)
		assert.False(t, a.EMA14.Valid)
		assert.False(t, a.RSI14.Valid)
		assert.False(t, a.VolumeSMA5.Valid)
		assert.True(t, a.OBV.Valid)
		assert.Empty(t, a.OverallTrend)
		assert.Nil(t, a.TrendStrength)
	})

	t.Run("sorts by open time without touching the input", func(t *testing.T) {
		sorted := risingCandles(40)
		shuffled := make([]models.Candle, len(sorted))
		copy(shuffled, sorted)
		rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		first := shuffled[0]

		fromShuffled := Analyze("BTCUSDT", shuffled, baseTime)
		fromSorted := Analyze("BTCUSDT", sorted, baseTime)

		assert.Equal(t, fromSorted, fromShuffled)
		assert.Equal(t, first, shuffled[0])
	})

	t.Run("is deterministic", func(t *testing.T) {
		candles := directionalCandles(6, 2)
		assert.Equal(t, Analyze("BTCUSDT", candles, baseTime), Analyze("BTCUSDT", candles, baseTime))
	})
}
