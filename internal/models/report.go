package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisReport aggregates per-symbol analyses into a cross-market view
type AnalysisReport struct {
	ReportTime     time.Time `json:"report_time"`
	TotalSymbols   int       `json:"total_symbols"`
	BullishSymbols int       `json:"bullish_symbols"`
	BearishSymbols int       `json:"bearish_symbols"`
	NeutralSymbols int       `json:"neutral_symbols"`

	TopBullish []SymbolTrend `json:"top_bullish"`
	TopBearish []SymbolTrend `json:"top_bearish"`

	SignificantPatterns []SymbolPattern `json:"significant_patterns"`

	// CorrelationMatrix is nil when fewer than two symbols have buffered prices
	CorrelationMatrix map[string]map[string]decimal.Decimal `json:"correlation_matrix,omitempty"`
}

// SymbolTrend is one entry of the top bullish/bearish rankings
type SymbolTrend struct {
	Symbol   string              `json:"symbol"`
	Trend    Trend               `json:"trend"`
	Strength int                 `json:"strength"`
	RSI      decimal.NullDecimal `json:"rsi"`
}

// SymbolPattern is a flagged chart pattern on a symbol
type SymbolPattern struct {
	Symbol       string          `json:"symbol"`
	Pattern      string          `json:"pattern"`
	Trend        Trend           `json:"trend"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}
