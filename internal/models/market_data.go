package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerStats is the rolling 24 hour ticker window reported by the exchange
type TickerStats struct {
	Symbol             string          `json:"symbol"`
	OpenPrice          decimal.Decimal `json:"open_price"`
	HighPrice          decimal.Decimal `json:"high_price"`
	LowPrice           decimal.Decimal `json:"low_price"`
	LastPrice          decimal.Decimal `json:"last_price"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	TradeCount         int64           `json:"trade_count"`
	OpenTime           time.Time       `json:"open_time"`
	CloseTime          time.Time       `json:"close_time"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MarketData is the combined stored view of one symbol. Parts that have not
// been collected yet are nil or empty.
type MarketData struct {
	Symbol       string        `json:"symbol"`
	CurrentPrice *CurrentPrice `json:"current_price"`
	Klines       []Candle      `json:"klines"`
	TickerStats  *TickerStats  `json:"ticker_stats"`
}

// IsEmpty reports whether nothing at all is stored for the symbol
func (m *MarketData) IsEmpty() bool {
	return m.CurrentPrice == nil && len(m.Klines) == 0 && m.TickerStats == nil
}
