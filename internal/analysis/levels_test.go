package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

func candlesFromHighs(highs ...int64) []models.Candle {
	candles := make([]models.Candle, len(highs))
	for i, h := range highs {
		high := decimal.NewFromInt(h)
		candles[i] = candle(i, "0", "0", "0", "0", "1")
		candles[i].Open = high.Sub(d("0.5"))
		candles[i].Close = high.Sub(d("0.5"))
		candles[i].High = high
		candles[i].Low = high.Sub(d("1"))
	}
	return candles
}

func assertLevels(t *testing.T, expected []string, got []decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(expected))
	for i := range expected {
		assert.True(t, d(expected[i]).Equal(got[i]), "level %d: expected %s, got %s", i, expected[i], got[i])
	}
}

func TestFindLevels(t *testing.T) {
	t.Run("single peak is resistance and edges are never candidates", func(t *testing.T) {
		candles := candlesFromHighs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 20, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
		support, resistance := FindLevels(candles)
		assertLevels(t, []string{"20"}, resistance)
		assert.NotNil(t, support)
		assert.Empty(t, support)
	})

	t.Run("single trough is support", func(t *testing.T) {
		candles := candlesFromHighs(20, 19, 18, 17, 16, 15, 14, 13, 12, 11, 5, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)
		support, resistance := FindLevels(candles)
		assertLevels(t, []string{"4"}, support)
		assert.Empty(t, resistance)
	})

	t.Run("ties count as extremal and merge into one level", func(t *testing.T) {
		candles := candlesFromHighs(10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10)
		support, resistance := FindLevels(candles)
		assertLevels(t, []string{"10"}, resistance)
		assertLevels(t, []string{"9"}, support)
	})

	t.Run("short series has no levels", func(t *testing.T) {
		support, resistance := FindLevels(candlesFromHighs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
		assert.Empty(t, support)
		assert.Empty(t, resistance)
	})
}

func TestMergeLevels(t *testing.T) {
	t.Run("caps at three clusters", func(t *testing.T) {
		merged := MergeLevels(decimals(5, 1, 4, 2, 3))
		assertLevels(t, []string{"1", "2", "3"}, merged)
	})

	t.Run("merges neighbours within half a percent into their mean", func(t *testing.T) {
		merged := MergeLevels(decimals(100, 100.4, 100.5, 200, 300))
		assertLevels(t, []string{"100.3", "200", "300"}, merged)
	})

	t.Run("distance is measured from the first member of a cluster", func(t *testing.T) {
		merged := MergeLevels(decimals(100, 100.4, 100.8, 200))
		assertLevels(t, []string{"100.2", "100.8", "200"}, merged)
	})

	t.Run("three or fewer levels are only sorted", func(t *testing.T) {
		merged := MergeLevels(decimals(3, 1, 1.001))
		assertLevels(t, []string{"1", "1.001", "3"}, merged)
	})

	t.Run("zero anchor only merges zeros", func(t *testing.T) {
		merged := MergeLevels(decimals(0, 0, 1, 2))
		assertLevels(t, []string{"0", "1", "2"}, merged)
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := [][]decimal.Decimal{
			decimals(100, 100.4, 100.5, 200, 300),
			decimals(5, 1, 4, 2, 3),
			decimals(7, 7.01, 7.02, 7.03),
			decimals(1, 2),
		}
		for _, levels := range inputs {
			once := MergeLevels(levels)
			twice := MergeLevels(once)
			require.Len(t, twice, len(once))
			for i := range once {
				assert.True(t, once[i].Equal(twice[i]))
			}
		}
	})

	t.Run("does not modify its input", func(t *testing.T) {
		levels := decimals(5, 1, 4, 2, 3)
		MergeLevels(levels)
		assert.True(t, d("5").Equal(levels[0]))
	})
}
