package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventKlineClosed       = "KLINE_CLOSED"
	EventAnalysisCompleted = "ANALYSIS_COMPLETED"
	EventReportGenerated   = "REPORT_GENERATED"
)

// KlineEvent is a closed candle published by an upstream market data feed.
// Prices are decimal strings to avoid float rounding on the wire.
type KlineEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Data      KlineEventData `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// KlineEventData is the candle payload of a KlineEvent
type KlineEventData struct {
	Symbol    string `json:"symbol"`
	OpenTime  int64  `json:"open_time"`
	CloseTime int64  `json:"close_time"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// AnalysisEvent announces a fresh per-symbol analysis
type AnalysisEvent struct {
	EventType string         `json:"event_type"`
	Symbol    string         `json:"symbol"`
	Analysis  *KlineAnalysis `json:"analysis"`
	Timestamp time.Time      `json:"timestamp"`
}

// ReportEvent announces a regenerated cross-market report
type ReportEvent struct {
	EventType string          `json:"event_type"`
	Report    *AnalysisReport `json:"report"`
	Timestamp time.Time       `json:"timestamp"`
}

// ToCandle parses the payload into a validated Candle.
// Times are Unix milliseconds.
func (d KlineEventData) ToCandle() (Candle, error) {
	c := Candle{
		Symbol:    d.Symbol,
		OpenTime:  time.UnixMilli(d.OpenTime).UTC(),
		CloseTime: time.UnixMilli(d.CloseTime).UTC(),
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", d.Open, &c.Open},
		{"high", d.High, &c.High},
		{"low", d.Low, &c.Low},
		{"close", d.Close, &c.Close},
		{"volume", d.Volume, &c.Volume},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Candle{}, fmt.Errorf("%w: bad %s %q for %s", ErrInvalidCandle, f.name, f.raw, d.Symbol)
		}
		*f.dst = v
	}

	if err := c.Validate(); err != nil {
		return Candle{}, err
	}
	return c, nil
}
