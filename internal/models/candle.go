package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidCandle is returned when a candle violates the OHLCV invariants
var ErrInvalidCandle = errors.New("invalid candle")

// Candle represents one OHLCV observation for a fixed time bucket
type Candle struct {
	Symbol    string          `json:"symbol"`
	OpenTime  time.Time       `json:"open_time"`
	CloseTime time.Time       `json:"close_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// IsBullish reports whether the candle closed above its open
func (c Candle) IsBullish() bool {
	return c.Close.GreaterThan(c.Open)
}

// IsBearish reports whether the candle closed below its open
func (c Candle) IsBearish() bool {
	return c.Close.LessThan(c.Open)
}

// Validate checks the candle against the OHLCV invariants:
// non-negative values and high >= max(open, close) >= min(open, close) >= low
func (c Candle) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidCandle)
	}
	if c.OpenTime.IsZero() {
		return fmt.Errorf("%w: open time is required for %s", ErrInvalidCandle, c.Symbol)
	}
	if !c.CloseTime.IsZero() && c.CloseTime.Before(c.OpenTime) {
		return fmt.Errorf("%w: close time before open time for %s", ErrInvalidCandle, c.Symbol)
	}

	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", c.Open}, {"high", c.High}, {"low", c.Low}, {"close", c.Close}, {"volume", c.Volume},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: negative %s %s for %s", ErrInvalidCandle, f.name, f.value, c.Symbol)
		}
	}

	bodyHigh := decimal.Max(c.Open, c.Close)
	bodyLow := decimal.Min(c.Open, c.Close)
	if c.High.LessThan(bodyHigh) {
		return fmt.Errorf("%w: high %s below body %s for %s", ErrInvalidCandle, c.High, bodyHigh, c.Symbol)
	}
	if c.Low.GreaterThan(bodyLow) {
		return fmt.Errorf("%w: low %s above body %s for %s", ErrInvalidCandle, c.Low, bodyLow, c.Symbol)
	}
	return nil
}

// CurrentPrice is the most recent traded price for a symbol
type CurrentPrice struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}
