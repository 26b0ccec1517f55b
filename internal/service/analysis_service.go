// Package service loads candles for configured symbols, runs the analyzer
// and keeps the latest analysis per symbol.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trogers1052/market-analysis-service/internal/analysis"
	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

// StrongTrendThreshold is the strength above which a symbol appears in the summary
const StrongTrendThreshold = 65

// CandleStore reads stored candles
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
}

// SymbolProvider lists the symbols to analyze
type SymbolProvider interface {
	Symbols(ctx context.Context) ([]string, error)
}

// Publisher announces completed analyses
type Publisher interface {
	PublishAnalysisCompleted(ctx context.Context, a *models.KlineAnalysis) error
}

// AnalysisService runs per-symbol analysis over stored candles
type AnalysisService struct {
	candles     CandleStore
	symbols     SymbolProvider
	publisher   Publisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	candleLimit int
	now         func() time.Time

	mu     sync.RWMutex
	latest map[string]*models.KlineAnalysis
}

// NewAnalysisService creates the service. candleLimit bounds how many of the
// most recent candles are analyzed per symbol.
func NewAnalysisService(
	candles CandleStore,
	symbols SymbolProvider,
	m *metrics.Metrics,
	logger *zap.Logger,
	candleLimit int,
) *AnalysisService {
	return &AnalysisService{
		candles:     candles,
		symbols:     symbols,
		metrics:     m,
		logger:      logger,
		candleLimit: candleLimit,
		now:         time.Now,
		latest:      make(map[string]*models.KlineAnalysis),
	}
}

// SetPublisher enables ANALYSIS_COMPLETED events
func (s *AnalysisService) SetPublisher(p Publisher) {
	s.publisher = p
}

// AnalyzeSymbol analyzes the stored candles of one symbol. It returns nil
// without an error when the symbol has no candles yet.
func (s *AnalysisService) AnalyzeSymbol(ctx context.Context, symbol string) (*models.KlineAnalysis, error) {
	start := time.Now()

	candles, err := s.candles.GetCandles(ctx, symbol, s.candleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles for %s: %w", symbol, err)
	}

	result := analysis.Analyze(symbol, candles, s.now())
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if result == nil {
		s.logger.Debug("No candles to analyze", zap.String("symbol", symbol))
		return nil, nil
	}

	s.mu.Lock()
	s.latest[symbol] = result
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishAnalysisCompleted(ctx, result); err != nil {
			s.logger.Warn("Failed to publish analysis event", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	return result, nil
}

// LatestAnalysis returns the most recent analysis computed for a symbol
func (s *AnalysisService) LatestAnalysis(symbol string) (*models.KlineAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.latest[symbol]
	return a, ok
}

// AnalyzeAll analyzes every configured symbol. Symbols that fail or have no
// candles are left out.
func (s *AnalysisService) AnalyzeAll(ctx context.Context) (map[string]*models.KlineAnalysis, error) {
	symbols, err := s.symbols.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	results := make(map[string]*models.KlineAnalysis, len(symbols))
	for _, symbol := range symbols {
		a, err := s.AnalyzeSymbol(ctx, symbol)
		if err != nil {
			s.logger.Warn("Failed to analyze symbol", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if a != nil {
			results[symbol] = a
		}
	}
	return results, nil
}

// Summary returns the symbols trending with strength above StrongTrendThreshold
func (s *AnalysisService) Summary(ctx context.Context) (map[string]models.SymbolSummary, error) {
	analyses, err := s.AnalyzeAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]models.SymbolSummary)
	for symbol, a := range analyses {
		if a.TrendStrength == nil || *a.TrendStrength <= StrongTrendThreshold {
			continue
		}
		summary[symbol] = models.SymbolSummary{
			Trend:    a.OverallTrend,
			Strength: *a.TrendStrength,
			RSI:      a.RSI14,
			Patterns: a.ActivePatterns(),
		}
	}
	return summary, nil
}
