package analysis

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

// Analyze runs the indicator, pattern, level and trend computations over a
// candle series and returns one analysis stamped with now. It returns nil for
// an empty series. The input slice is not modified.
func Analyze(symbol string, candles []models.Candle, now time.Time) *models.KlineAnalysis {
	if len(candles) == 0 {
		return nil
	}

	sorted := slices.Clone(candles)
	slices.SortStableFunc(sorted, func(a, b models.Candle) int {
		return a.OpenTime.Compare(b.OpenTime)
	})

	closes := make([]decimal.Decimal, len(sorted))
	volumes := make([]decimal.Decimal, len(sorted))
	for i, c := range sorted {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	a := &models.KlineAnalysis{
		Symbol:       symbol,
		AnalysisTime: now,
	}

	a.SMA20 = SMA(closes, SMAPeriod)
	a.EMA14 = EMA(closes, EMAPeriod)
	a.RSI14 = RSI(closes, RSIPeriod)

	macd := MACD(closes)
	a.MACD = macd.MACD
	a.MACDSignal = macd.Signal
	a.MACDHistogram = macd.Histogram

	bands := Bollinger(closes, a.SMA20)
	a.BollingerUpper = bands.Upper
	a.BollingerMiddle = bands.Middle
	a.BollingerLower = bands.Lower

	a.VolumeSMA5 = SMA(volumes, VolumeSMAPeriod)
	a.OBV = OBV(closes, volumes)

	patterns := DetectPatterns(sorted)
	a.Doji = patterns.Doji
	a.HammerPattern = patterns.Hammer
	a.EngulfingPattern = patterns.Engulfing

	a.SupportLevels, a.ResistanceLevels = FindLevels(sorted)
	a.OverallTrend, a.TrendStrength = ScoreTrend(sorted, a)

	return a
}
