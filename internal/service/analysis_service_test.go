package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

type mockCandleStore struct {
	candles   map[string][]models.Candle
	failing   map[string]bool
	lastLimit int
}

func (m *mockCandleStore) GetCandles(_ context.Context, symbol string, limit int) ([]models.Candle, error) {
	m.lastLimit = limit
	if m.failing[symbol] {
		return nil, errors.New("connection refused")
	}
	return m.candles[symbol], nil
}

type staticSymbols []string

func (s staticSymbols) Symbols(context.Context) ([]string, error) {
	return s, nil
}

type mockPublisher struct {
	published []*models.KlineAnalysis
	err       error
}

func (m *mockPublisher) PublishAnalysisCompleted(_ context.Context, a *models.KlineAnalysis) error {
	m.published = append(m.published, a)
	return m.err
}

var baseTime = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// rallyCandles builds n rising one minute candles closing at 1, 2, ... n
func rallyCandles(symbol string, n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		c := decimal.NewFromInt(int64(i + 1))
		open := baseTime.Add(time.Duration(i) * time.Minute)
		candles[i] = models.Candle{
			Symbol:    symbol,
			OpenTime:  open,
			CloseTime: open.Add(time.Minute),
			Open:      c.Sub(decimal.RequireFromString("0.5")),
			High:      c.Add(decimal.RequireFromString("0.25")),
			Low:       c.Sub(decimal.RequireFromString("0.75")),
			Close:     c,
			Volume:    decimal.NewFromInt(10),
		}
	}
	return candles
}

// flatCandles builds n identical candles
func flatCandles(symbol string, n int) []models.Candle {
	candles := make([]models.Candle, n)
	ten := decimal.NewFromInt(10)
	for i := range candles {
		open := baseTime.Add(time.Duration(i) * time.Minute)
		candles[i] = models.Candle{
			Symbol: symbol, OpenTime: open, CloseTime: open.Add(time.Minute),
			Open: ten, High: ten, Low: ten, Close: ten, Volume: ten,
		}
	}
	return candles
}

func newTestService(store *mockCandleStore, symbols ...string) *AnalysisService {
	svc := NewAnalysisService(store, staticSymbols(symbols), metrics.New(prometheus.NewRegistry()), zap.NewNop(), 500)
	svc.now = func() time.Time { return baseTime.Add(time.Hour) }
	return svc
}

func TestAnalysisService_AnalyzeSymbol(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when no candles are stored", func(t *testing.T) {
		svc := newTestService(&mockCandleStore{})

		a, err := svc.AnalyzeSymbol(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Nil(t, a)

		_, ok := svc.LatestAnalysis("BTCUSDT")
		assert.False(t, ok)
	})

	t.Run("wraps store errors", func(t *testing.T) {
		svc := newTestService(&mockCandleStore{failing: map[string]bool{"BTCUSDT": true}})

		_, err := svc.AnalyzeSymbol(ctx, "BTCUSDT")
		assert.ErrorContains(t, err, "BTCUSDT")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("analyzes and retains the latest result", func(t *testing.T) {
		store := &mockCandleStore{candles: map[string][]models.Candle{"BTCUSDT": rallyCandles("BTCUSDT", 30)}}
		svc := newTestService(store)
		pub := &mockPublisher{}
		svc.SetPublisher(pub)

		a, err := svc.AnalyzeSymbol(ctx, "BTCUSDT")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, 500, store.lastLimit)
		assert.Equal(t, "BTCUSDT", a.Symbol)
		assert.Equal(t, baseTime.Add(time.Hour), a.AnalysisTime)
		assert.Equal(t, models.TrendBullishOverbought, a.OverallTrend)

		latest, ok := svc.LatestAnalysis("BTCUSDT")
		require.True(t, ok)
		assert.Same(t, a, latest)

		require.Len(t, pub.published, 1)
		assert.Same(t, a, pub.published[0])
	})

	t.Run("publish failures are not returned", func(t *testing.T) {
		store := &mockCandleStore{candles: map[string][]models.Candle{"BTCUSDT": rallyCandles("BTCUSDT", 5)}}
		svc := newTestService(store)
		svc.SetPublisher(&mockPublisher{err: errors.New("broker down")})

		a, err := svc.AnalyzeSymbol(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.NotNil(t, a)
	})
}

func TestAnalysisService_AnalyzeAll(t *testing.T) {
	store := &mockCandleStore{
		candles: map[string][]models.Candle{
			"BTCUSDT": rallyCandles("BTCUSDT", 30),
			"ETHUSDT": flatCandles("ETHUSDT", 30),
		},
		failing: map[string]bool{"SOLUSDT": true},
	}
	svc := newTestService(store, "BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT")

	results, err := svc.AnalyzeAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Contains(t, results, "BTCUSDT")
	assert.Contains(t, results, "ETHUSDT")
}

func TestAnalysisService_Summary(t *testing.T) {
	store := &mockCandleStore{
		candles: map[string][]models.Candle{
			"BTCUSDT": rallyCandles("BTCUSDT", 30),
			"ETHUSDT": flatCandles("ETHUSDT", 30),
			"SOLUSDT": rallyCandles("SOLUSDT", 10),
		},
	}
	svc := newTestService(store, "BTCUSDT", "ETHUSDT", "SOLUSDT")

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.Len(t, summary, 1)
	btc := summary["BTCUSDT"]
	assert.Equal(t, models.TrendBullishOverbought, btc.Trend)
	assert.Equal(t, 90, btc.Strength)
	assert.True(t, btc.RSI.Valid)
	assert.NotNil(t, btc.Patterns)
}
