// Package report aggregates per-symbol analyses into a cross-market report
// with trend counts, rankings, notable patterns and a price correlation
// matrix. The last report is cached and reused while it is fresh.
package report

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/market-analysis-service/internal/history"
	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTTL is how long a generated report is served from cache
	DefaultTTL = 5 * time.Minute

	// DefaultTopN is the length of the bullish and bearish rankings
	DefaultTopN = 5

	defaultParallelism = 8
)

// SymbolProvider lists the symbols a report covers
type SymbolProvider interface {
	Symbols(ctx context.Context) ([]string, error)
}

// AnalyzeFunc produces the analysis for one symbol. A nil analysis with a nil
// error means the symbol has no data yet.
type AnalyzeFunc func(ctx context.Context, symbol string) (*models.KlineAnalysis, error)

// PriceSource returns the latest known price of a symbol
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*models.CurrentPrice, error)
}

// Publisher announces regenerated reports
type Publisher interface {
	PublishReportGenerated(ctx context.Context, report *models.AnalysisReport) error
}

// Config tunes report generation
type Config struct {
	TTL                  time.Duration
	TopN                 int
	MinCorrelationPoints int
	Parallelism          int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.MinCorrelationPoints <= 0 {
		c.MinCorrelationPoints = DefaultMinCorrelationPoints
	}
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	return c
}

// Aggregator builds and caches AnalysisReports
type Aggregator struct {
	symbols   SymbolProvider
	analyze   AnalyzeFunc
	prices    PriceSource
	history   history.Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time

	// mu serializes the freshness check with regeneration
	mu     sync.Mutex
	cached *models.AnalysisReport
}

// NewAggregator creates an aggregator using the wall clock
func NewAggregator(
	symbols SymbolProvider,
	analyze AnalyzeFunc,
	prices PriceSource,
	store history.Store,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg Config,
) *Aggregator {
	return &Aggregator{
		symbols: symbols,
		analyze: analyze,
		prices:  prices,
		history: store,
		metrics: m,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// SetPublisher enables REPORT_GENERATED events
func (a *Aggregator) SetPublisher(p Publisher) {
	a.publisher = p
}

// SetClock replaces the clock used to stamp reports and check freshness
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Report returns the cached report while it is younger than the TTL and
// regenerates it otherwise.
func (a *Aggregator) Report(ctx context.Context) (*models.AnalysisReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.cached != nil && now.Sub(a.cached.ReportTime) < a.cfg.TTL {
		a.metrics.ReportCacheHits.Inc()
		a.logger.Debug("Serving cached report", zap.Time("report_time", a.cached.ReportTime))
		return a.cached, nil
	}

	return a.generate(ctx, now)
}

// Regenerate rebuilds the report regardless of the cached one's age
func (a *Aggregator) Regenerate(ctx context.Context) (*models.AnalysisReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.generate(ctx, a.now())
}

// Cached returns the last generated report, or nil
func (a *Aggregator) Cached() *models.AnalysisReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached
}

func (a *Aggregator) generate(ctx context.Context, now time.Time) (*models.AnalysisReport, error) {
	start := time.Now()

	symbols, err := a.symbols.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(symbols) == 0 {
		a.logger.Warn("No symbols available for analysis")
		return emptyReport(now), nil
	}

	analyses, failures, err := a.analyzeSymbols(ctx, symbols)
	if err != nil {
		return nil, err
	}
	if len(failures) == len(symbols) {
		return nil, fmt.Errorf("failed to analyze all %d symbols: %w", len(symbols), errors.Join(failures...))
	}

	prices := a.currentPrices(ctx, analyses)
	a.appendHistory(ctx, prices)

	report := buildReport(now, analyses, prices, a.cfg.TopN)

	buffers, err := a.history.Snapshot(ctx)
	if err != nil {
		a.logger.Warn("Failed to read price history, omitting correlation matrix", zap.Error(err))
	} else if len(buffers) >= 2 {
		report.CorrelationMatrix = CorrelationMatrix(buffers, a.cfg.MinCorrelationPoints)
	}

	// A partial report is served but not cached so the next call retries the failed symbols
	if len(failures) == 0 {
		a.cached = report
	}
	a.metrics.ReportGenerations.Inc()
	a.metrics.ReportDuration.Observe(time.Since(start).Seconds())

	a.logger.Info("Generated analysis report",
		zap.Int("total_symbols", report.TotalSymbols),
		zap.Int("bullish", report.BullishSymbols),
		zap.Int("bearish", report.BearishSymbols),
		zap.Int("neutral", report.NeutralSymbols),
		zap.Int("failed", len(failures)),
		zap.Duration("took", time.Since(start)),
	)

	if a.publisher != nil {
		if err := a.publisher.PublishReportGenerated(ctx, report); err != nil {
			a.logger.Warn("Failed to publish report event", zap.Error(err))
		}
	}

	return report, nil
}

// analyzeSymbols runs the analyzer for every symbol in parallel. Symbols
// without an analysis are left out of the result; analyzer errors are
// returned separately so the caller can tell an outage from missing data.
func (a *Aggregator) analyzeSymbols(ctx context.Context, symbols []string) (map[string]*models.KlineAnalysis, []error, error) {
	results := make([]*models.KlineAnalysis, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Parallelism)
	for i, symbol := range symbols {
		g.Go(func() error {
			analysis, err := a.analyze(gctx, symbol)
			if err != nil {
				a.logger.Warn("Failed to analyze symbol", zap.String("symbol", symbol), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", symbol, err)
				return nil
			}
			results[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("report generation cancelled: %w", err)
	}

	var failures []error
	analyses := make(map[string]*models.KlineAnalysis, len(symbols))
	for i, symbol := range symbols {
		if errs[i] != nil {
			a.metrics.SymbolsSkipped.Inc()
			failures = append(failures, errs[i])
			continue
		}
		if results[i] == nil {
			a.metrics.SymbolsSkipped.Inc()
			a.logger.Warn("No analysis available", zap.String("symbol", symbol))
			continue
		}
		analyses[symbol] = results[i]
	}
	return analyses, failures, nil
}

func (a *Aggregator) currentPrices(ctx context.Context, analyses map[string]*models.KlineAnalysis) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(analyses))
	for _, symbol := range slices.Sorted(maps.Keys(analyses)) {
		price, err := a.prices.GetCurrentPrice(ctx, symbol)
		if err != nil || price == nil {
			a.logger.Debug("No current price", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		prices[symbol] = price.Price
	}
	return prices
}

func (a *Aggregator) appendHistory(ctx context.Context, prices map[string]decimal.Decimal) {
	for _, symbol := range slices.Sorted(maps.Keys(prices)) {
		if err := a.history.Append(ctx, symbol, prices[symbol]); err != nil {
			a.logger.Warn("Failed to append price history", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func emptyReport(now time.Time) *models.AnalysisReport {
	return &models.AnalysisReport{
		ReportTime:          now,
		TopBullish:          []models.SymbolTrend{},
		TopBearish:          []models.SymbolTrend{},
		SignificantPatterns: []models.SymbolPattern{},
	}
}

// buildReport derives counts, rankings and patterns. prices holds the
// current price of each symbol that has one.
func buildReport(
	now time.Time,
	analyses map[string]*models.KlineAnalysis,
	prices map[string]decimal.Decimal,
	topN int,
) *models.AnalysisReport {
	report := emptyReport(now)
	report.TotalSymbols = len(analyses)

	symbols := slices.Sorted(maps.Keys(analyses))
	for _, symbol := range symbols {
		analysis := analyses[symbol]
		trend := analysis.OverallTrend
		if trend == "" {
			continue
		}

		switch {
		case trend.IsBullish():
			report.BullishSymbols++
		case trend.IsBearish():
			report.BearishSymbols++
		default:
			report.NeutralSymbols++
		}

		if analysis.TrendStrength != nil {
			entry := models.SymbolTrend{
				Symbol:   symbol,
				Trend:    trend,
				Strength: *analysis.TrendStrength,
				RSI:      analysis.RSI14,
			}
			if trend.IsBullish() {
				report.TopBullish = append(report.TopBullish, entry)
			} else if trend.IsBearish() {
				report.TopBearish = append(report.TopBearish, entry)
			}
		}

		price, ok := prices[symbol]
		if !ok {
			continue
		}
		for _, pattern := range significantPatterns(analysis) {
			report.SignificantPatterns = append(report.SignificantPatterns, models.SymbolPattern{
				Symbol:       symbol,
				Pattern:      pattern,
				Trend:        trend,
				CurrentPrice: price,
			})
		}
	}

	report.TopBullish = rank(report.TopBullish, topN)
	report.TopBearish = rank(report.TopBearish, topN)
	return report
}

// significantPatterns returns hammer and engulfing whenever present, and doji
// only on a plain BULLISH or BEARISH trend.
func significantPatterns(a *models.KlineAnalysis) []string {
	var patterns []string
	if a.HammerPattern {
		patterns = append(patterns, models.PatternHammer)
	}
	if a.EngulfingPattern {
		patterns = append(patterns, models.PatternEngulfing)
	}
	if a.Doji && (a.OverallTrend == models.TrendBullish || a.OverallTrend == models.TrendBearish) {
		patterns = append(patterns, models.PatternDoji)
	}
	return patterns
}

func rank(trends []models.SymbolTrend, topN int) []models.SymbolTrend {
	slices.SortFunc(trends, func(x, y models.SymbolTrend) int {
		if c := cmp.Compare(y.Strength, x.Strength); c != 0 {
			return c
		}
		return cmp.Compare(x.Symbol, y.Symbol)
	})
	if len(trends) > topN {
		trends = trends[:topN]
	}
	return trends
}
