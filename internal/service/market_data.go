package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/trogers1052/market-analysis-service/internal/database"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

// MarketDataKlines is how many of the latest candles the market data view carries
const MarketDataKlines = 60

// MarketDataStore reads the stored pieces of a symbol's market data
type MarketDataStore interface {
	CandleStore
	GetCurrentPrice(ctx context.Context, symbol string) (*models.CurrentPrice, error)
	GetTickerStats(ctx context.Context, symbol string) (*models.TickerStats, error)
}

// MarketDataService assembles the stored price, klines and 24h ticker stats of symbols
type MarketDataService struct {
	store   MarketDataStore
	symbols SymbolProvider
	logger  *zap.Logger
}

// NewMarketDataService creates the service
func NewMarketDataService(store MarketDataStore, symbols SymbolProvider, logger *zap.Logger) *MarketDataService {
	return &MarketDataService{store: store, symbols: symbols, logger: logger}
}

// MarketData returns the combined view of one symbol, or nil when nothing is stored for it
func (s *MarketDataService) MarketData(ctx context.Context, symbol string) (*models.MarketData, error) {
	data := &models.MarketData{Symbol: symbol}

	price, err := s.store.GetCurrentPrice(ctx, symbol)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load market data for %s: %w", symbol, err)
	}
	data.CurrentPrice = price

	data.Klines, err = s.store.GetCandles(ctx, symbol, MarketDataKlines)
	if err != nil {
		return nil, fmt.Errorf("failed to load market data for %s: %w", symbol, err)
	}

	stats, err := s.store.GetTickerStats(ctx, symbol)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load market data for %s: %w", symbol, err)
	}
	data.TickerStats = stats

	if data.IsEmpty() {
		return nil, nil
	}
	return data, nil
}

// AllMarketData returns the view of every configured symbol that has stored data
func (s *MarketDataService) AllMarketData(ctx context.Context) (map[string]*models.MarketData, error) {
	symbols, err := s.symbols.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	result := make(map[string]*models.MarketData, len(symbols))
	for _, symbol := range symbols {
		data, err := s.MarketData(ctx, symbol)
		if err != nil {
			s.logger.Warn("Failed to load market data", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if data != nil {
			result[symbol] = data
		}
	}
	return result, nil
}
