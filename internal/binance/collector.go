package binance

import (
	"context"
	"errors"
	"fmt"

	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

// MarketData is the exchange side of collection
type MarketData interface {
	FetchKlines(ctx context.Context, symbol string) ([]models.Candle, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (*models.CurrentPrice, error)
	FetchTickerStats(ctx context.Context, symbol string) (*models.TickerStats, error)
}

// Store persists collected market data
type Store interface {
	UpsertCandles(ctx context.Context, candles []models.Candle) error
	UpsertCurrentPrice(ctx context.Context, p *models.CurrentPrice) error
	UpsertTickerStats(ctx context.Context, s *models.TickerStats) error
}

// SymbolProvider lists the symbols to collect
type SymbolProvider interface {
	Symbols(ctx context.Context) ([]string, error)
}

// Collector copies klines and prices from the exchange into the store
type Collector struct {
	source  MarketData
	store   Store
	symbols SymbolProvider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCollector creates a collector
func NewCollector(source MarketData, store Store, symbols SymbolProvider, m *metrics.Metrics, logger *zap.Logger) *Collector {
	return &Collector{
		source:  source,
		store:   store,
		symbols: symbols,
		metrics: m,
		logger:  logger,
	}
}

// CollectAll collects every symbol. A failing symbol is logged and does not
// stop the others; the returned error joins all per-symbol failures.
func (c *Collector) CollectAll(ctx context.Context) error {
	symbols, err := c.symbols.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}

	var errs []error
	for _, symbol := range symbols {
		if err := c.CollectSymbol(ctx, symbol); err != nil {
			c.logger.Warn("Market data collection failed", zap.String("symbol", symbol), zap.Error(err))
			errs = append(errs, err)
		}
	}

	c.logger.Info("Collected market data",
		zap.Int("symbols", len(symbols)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

// CollectSymbol fetches and stores the current price, recent klines and 24h
// ticker stats of one symbol
func (c *Collector) CollectSymbol(ctx context.Context, symbol string) error {
	price, err := c.source.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		c.metrics.CollectErrors.WithLabelValues("price").Inc()
		return err
	}
	if err := c.store.UpsertCurrentPrice(ctx, price); err != nil {
		c.metrics.CollectErrors.WithLabelValues("store").Inc()
		return err
	}

	candles, err := c.source.FetchKlines(ctx, symbol)
	if err != nil {
		c.metrics.CollectErrors.WithLabelValues("klines").Inc()
		return err
	}
	if err := c.store.UpsertCandles(ctx, candles); err != nil {
		c.metrics.CollectErrors.WithLabelValues("store").Inc()
		return err
	}

	stats, err := c.source.FetchTickerStats(ctx, symbol)
	if err != nil {
		c.metrics.CollectErrors.WithLabelValues("ticker").Inc()
		return err
	}
	if err := c.store.UpsertTickerStats(ctx, stats); err != nil {
		c.metrics.CollectErrors.WithLabelValues("store").Inc()
		return err
	}

	c.logger.Debug("Stored market data",
		zap.String("symbol", symbol),
		zap.String("price", price.Price.String()),
		zap.Int("candles", len(candles)),
		zap.String("change_24h", stats.PriceChangePercent.String()),
	)
	return nil
}
