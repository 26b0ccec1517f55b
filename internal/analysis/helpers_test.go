package analysis

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

var baseTime = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func ascending(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.NewFromInt(int64(i + 1))
	}
	return out
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}

func candle(i int, open, high, low, close, volume string) models.Candle {
	return models.Candle{
		Symbol:    "BTCUSDT",
		OpenTime:  baseTime.Add(time.Duration(i) * time.Minute),
		CloseTime: baseTime.Add(time.Duration(i+1)*time.Minute - time.Millisecond),
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
		Volume:    d(volume),
	}
}

// risingCandles builds n bullish candles closing at 1..n with constant volume
func risingCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		c := decimal.NewFromInt(int64(i + 1))
		candles[i] = models.Candle{
			Symbol:    "BTCUSDT",
			OpenTime:  baseTime.Add(time.Duration(i) * time.Minute),
			CloseTime: baseTime.Add(time.Duration(i+1)*time.Minute - time.Millisecond),
			Open:      c.Sub(d("0.5")),
			High:      c.Add(d("0.25")),
			Low:       c.Sub(d("0.75")),
			Close:     c,
			Volume:    d("10"),
		}
	}
	return candles
}
