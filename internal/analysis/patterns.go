package analysis

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

// Pattern thresholds
var (
	dojiBodyRatio     = decimal.NewFromFloat(0.1)
	hammerShadowRatio = decimal.NewFromInt(2)
	hammerUpperRatio  = decimal.NewFromFloat(0.5)
)

// minPatternCandles guards pattern detection even though only the last two candles are read
const minPatternCandles = 3

// Patterns are the candlestick shapes found on the most recent candles
type Patterns struct {
	Doji      bool
	Hammer    bool
	Engulfing bool
}

// DetectPatterns classifies the last one or two candles of an ascending series
func DetectPatterns(candles []models.Candle) Patterns {
	if len(candles) < minPatternCandles {
		return Patterns{}
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	return Patterns{
		Doji:      isDoji(last),
		Hammer:    isHammer(last),
		Engulfing: isBullishEngulfing(prev, last) || isBearishEngulfing(prev, last),
	}
}

// body within 10% of the candle's range
func isDoji(c models.Candle) bool {
	threshold := c.High.Sub(c.Low).Mul(dojiBodyRatio)
	return c.Open.Sub(c.Close).Abs().LessThanOrEqual(threshold)
}

func isHammer(c models.Candle) bool {
	var body, lowerShadow, upperShadow decimal.Decimal
	if c.IsBullish() {
		body = c.Close.Sub(c.Open)
		lowerShadow = c.Open.Sub(c.Low)
		upperShadow = c.High.Sub(c.Close)
	} else {
		body = c.Open.Sub(c.Close)
		lowerShadow = c.Close.Sub(c.Low)
		upperShadow = c.High.Sub(c.Open)
	}

	return lowerShadow.GreaterThan(body.Mul(hammerShadowRatio)) &&
		upperShadow.LessThan(body.Mul(hammerUpperRatio))
}

func isBullishEngulfing(prev, last models.Candle) bool {
	return last.IsBullish() && prev.IsBearish() &&
		last.Open.LessThan(prev.Close) &&
		last.Close.GreaterThan(prev.Open)
}

func isBearishEngulfing(prev, last models.Candle) bool {
	return last.IsBearish() && prev.IsBullish() &&
		last.Open.GreaterThan(prev.Close) &&
		last.Close.LessThan(prev.Open)
}
