package analysis

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

const (
	trendMinCandles  = 20
	trendLookback    = 10
	trendConsistency = 6
	baseStrength     = 50
	maStrength       = 15
	candleStrength   = 3
	rsiStrength      = 10
	macdStrength     = 10
	minStrength      = 0
	maxStrength      = 100
)

var (
	rsiOverbought = decimal.NewFromInt(70)
	rsiOversold   = decimal.NewFromInt(30)
)

// ScoreTrend classifies the overall trend and scores its strength from 0 to
// 100. It needs at least 20 candles with EMA14 and SMA20 available; otherwise
// the trend is empty and the strength nil.
func ScoreTrend(candles []models.Candle, a *models.KlineAnalysis) (models.Trend, *int) {
	if len(candles) < trendMinCandles || !a.EMA14.Valid || !a.SMA20.Valid {
		return "", nil
	}

	emaAboveSMA := a.EMA14.Decimal.GreaterThan(a.SMA20.Decimal)

	var bullish, bearish int
	for _, c := range candles[len(candles)-trendLookback:] {
		switch {
		case c.IsBullish():
			bullish++
		case c.IsBearish():
			bearish++
		}
	}

	overbought := a.RSI14.Valid && a.RSI14.Decimal.GreaterThan(rsiOverbought)
	oversold := a.RSI14.Valid && a.RSI14.Decimal.LessThan(rsiOversold)

	trend := models.TrendNeutral
	switch {
	case emaAboveSMA && bullish >= trendConsistency:
		trend = models.TrendBullish
		if overbought {
			trend = models.TrendBullishOverbought
		}
	case !emaAboveSMA && bearish >= trendConsistency:
		trend = models.TrendBearish
		if oversold {
			trend = models.TrendBearishOversold
		}
	}

	score := baseStrength
	if emaAboveSMA {
		score += maStrength
	} else {
		score -= maStrength
	}
	score += (bullish - bearish) * candleStrength

	if overbought {
		score = min(maxStrength, score+rsiStrength)
	} else if oversold {
		score = max(minStrength, score-rsiStrength)
	}

	if a.MACD.Valid && a.MACDSignal.Valid {
		if a.MACD.Decimal.GreaterThan(a.MACDSignal.Decimal) {
			score += macdStrength
		} else {
			score -= macdStrength
		}
	}

	score = max(minStrength, min(maxStrength, score))
	return trend, &score
}
