package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trend is the composite trend classification of a symbol
type Trend string

// Trend constants. The zero value means the trend could not be computed yet.
const (
	TrendBullish           Trend = "BULLISH"
	TrendBullishOverbought Trend = "BULLISH_OVERBOUGHT"
	TrendBearish           Trend = "BEARISH"
	TrendBearishOversold   Trend = "BEARISH_OVERSOLD"
	TrendNeutral           Trend = "NEUTRAL"
)

// IsBullish reports whether the label belongs to the bullish family
func (t Trend) IsBullish() bool {
	return strings.Contains(string(t), "BULLISH")
}

// IsBearish reports whether the label belongs to the bearish family
func (t Trend) IsBearish() bool {
	return strings.Contains(string(t), "BEARISH")
}

// Pattern name constants
const (
	PatternHammer    = "HAMMER"
	PatternEngulfing = "ENGULFING"
	PatternDoji      = "DOJI"
)

// KlineAnalysis is the technical analysis snapshot for one symbol.
// Indicator fields are invalid until enough history exists to compute them.
type KlineAnalysis struct {
	Symbol       string    `json:"symbol"`
	AnalysisTime time.Time `json:"analysis_time"`

	SMA20           decimal.NullDecimal `json:"sma20"`
	EMA14           decimal.NullDecimal `json:"ema14"`
	RSI14           decimal.NullDecimal `json:"rsi14"`
	MACD            decimal.NullDecimal `json:"macd"`
	MACDSignal      decimal.NullDecimal `json:"macd_signal"`
	MACDHistogram   decimal.NullDecimal `json:"macd_histogram"`
	BollingerUpper  decimal.NullDecimal `json:"bollinger_upper"`
	BollingerMiddle decimal.NullDecimal `json:"bollinger_middle"`
	BollingerLower  decimal.NullDecimal `json:"bollinger_lower"`

	VolumeSMA5 decimal.NullDecimal `json:"volume_sma5"`
	OBV        decimal.NullDecimal `json:"obv"`

	HammerPattern    bool `json:"hammer_pattern"`
	EngulfingPattern bool `json:"engulfing_pattern"`
	Doji             bool `json:"doji"`

	SupportLevels    []decimal.Decimal `json:"support_levels"`
	ResistanceLevels []decimal.Decimal `json:"resistance_levels"`

	OverallTrend  Trend `json:"overall_trend,omitempty"`
	TrendStrength *int  `json:"trend_strength,omitempty"`
}

// ActivePatterns returns the names of the candlestick patterns present on the last candle
func (a *KlineAnalysis) ActivePatterns() []string {
	patterns := []string{}
	if a.HammerPattern {
		patterns = append(patterns, PatternHammer)
	}
	if a.EngulfingPattern {
		patterns = append(patterns, PatternEngulfing)
	}
	if a.Doji {
		patterns = append(patterns, PatternDoji)
	}
	return patterns
}

// SymbolSummary is the condensed view of a strongly trending symbol
type SymbolSummary struct {
	Trend    Trend               `json:"trend"`
	Strength int                 `json:"strength"`
	RSI      decimal.NullDecimal `json:"rsi"`
	Patterns []string            `json:"patterns"`
}
