package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the analysis service
type Metrics struct {
	AnalysisDuration prometheus.Histogram
	SymbolsSkipped   prometheus.Counter

	ReportGenerations prometheus.Counter
	ReportCacheHits   prometheus.Counter
	ReportDuration    prometheus.Histogram

	KlineEventsConsumed *prometheus.CounterVec // labels: result=stored|ignored|invalid|error
	CollectErrors       *prometheus.CounterVec // labels: stage=price|klines|ticker|store

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Time to load candles and analyze one symbol",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SymbolsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analysis_symbols_skipped_total",
			Help: "Symbols skipped during report generation because no analysis was available",
		}),
		ReportGenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_generations_total",
			Help: "Reports generated from scratch",
		}),
		ReportCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Report requests served from the cached report",
		}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Report generation latency",
			Buckets: prometheus.DefBuckets,
		}),
		KlineEventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kline_events_consumed_total",
			Help: "Kline events read from Kafka by outcome",
		}, []string{"result"}),
		CollectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_data_collect_errors_total",
			Help: "Market data collection failures by stage",
		}, []string{"stage"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysisDuration,
		m.SymbolsSkipped,
		m.ReportGenerations,
		m.ReportCacheHits,
		m.ReportDuration,
		m.KlineEventsConsumed,
		m.CollectErrors,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
