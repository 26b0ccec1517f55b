// Package binance fetches spot klines and ticker prices from Binance and
// stores them for analysis.
package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

// Config configures the exchange client
type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Interval  string
	Limit     int
}

// Client wraps the go-binance spot client
type Client struct {
	api      *binance.Client
	interval string
	limit    int
	now      func() time.Time
}

// NewClient creates a spot client. An empty BaseURL keeps the library default.
func NewClient(cfg Config) *Client {
	api := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		api.BaseURL = cfg.BaseURL
	}

	interval := cfg.Interval
	if interval == "" {
		interval = "1m"
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 60
	}

	return &Client{
		api:      api,
		interval: interval,
		limit:    limit,
		now:      time.Now,
	}
}

// FetchKlines returns the most recent klines for a symbol, oldest first
func (c *Client) FetchKlines(ctx context.Context, symbol string) ([]models.Candle, error) {
	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(c.interval).
		Limit(c.limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines for %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := convertKline(symbol, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// FetchCurrentPrice returns the latest ticker price for a symbol
func (c *Client) FetchCurrentPrice(ctx context.Context, symbol string) (*models.CurrentPrice, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no price data for symbol %s", symbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for %s: %w", prices[0].Price, symbol, err)
	}

	return &models.CurrentPrice{
		Symbol:    symbol,
		Price:     price,
		UpdatedAt: c.now().UTC(),
	}, nil
}

// FetchTickerStats returns the rolling 24 hour ticker window for a symbol
func (c *Client) FetchTickerStats(ctx context.Context, symbol string) (*models.TickerStats, error) {
	stats, err := c.api.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker stats for %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("no ticker stats for symbol %s", symbol)
	}
	return convertTickerStats(symbol, stats[0], c.now().UTC())
}

func convertTickerStats(symbol string, s *binance.PriceChangeStats, now time.Time) (*models.TickerStats, error) {
	out := &models.TickerStats{
		Symbol:     symbol,
		TradeCount: s.Count,
		OpenTime:   time.UnixMilli(s.OpenTime).UTC(),
		CloseTime:  time.UnixMilli(s.CloseTime).UTC(),
		UpdatedAt:  now,
	}

	fields := []struct {
		name  string
		raw   string
		value *decimal.Decimal
	}{
		{"openPrice", s.OpenPrice, &out.OpenPrice},
		{"highPrice", s.HighPrice, &out.HighPrice},
		{"lowPrice", s.LowPrice, &out.LowPrice},
		{"lastPrice", s.LastPrice, &out.LastPrice},
		{"volume", s.Volume, &out.Volume},
		{"quoteVolume", s.QuoteVolume, &out.QuoteVolume},
		{"priceChange", s.PriceChange, &out.PriceChange},
		{"priceChangePercent", s.PriceChangePercent, &out.PriceChangePercent},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q for %s: %w", f.name, f.raw, symbol, err)
		}
		*f.value = v
	}
	return out, nil
}

func convertKline(symbol string, k *binance.Kline) (models.Candle, error) {
	data := models.KlineEventData{
		Symbol:    symbol,
		OpenTime:  k.OpenTime,
		CloseTime: k.CloseTime,
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
	}
	return data.ToCandle()
}
