package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/trogers1052/market-analysis-service/internal/api"
	"github.com/trogers1052/market-analysis-service/internal/binance"
	"github.com/trogers1052/market-analysis-service/internal/config"
	"github.com/trogers1052/market-analysis-service/internal/database"
	"github.com/trogers1052/market-analysis-service/internal/history"
	"github.com/trogers1052/market-analysis-service/internal/kafka"
	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/report"
	"github.com/trogers1052/market-analysis-service/internal/scheduler"
	"github.com/trogers1052/market-analysis-service/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, collectors and scheduled reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

// components is the wired service graph shared by serve and analyze
type components struct {
	db         *database.DB
	history    history.Store
	metrics    *metrics.Metrics
	symbols    *service.WatchlistSymbols
	analysis   *service.AnalysisService
	aggregator *report.Aggregator
	closers    []func() error
}

func (c *components) Close(logger *zap.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{metrics: metrics.New(prometheus.NewRegistry())}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	c.db = db
	c.closers = append(c.closers, db.Close)

	if err := db.Migrate(cfg.Database.MigrationsURL); err != nil {
		c.Close(logger)
		return nil, err
	}

	if cfg.Redis.Enabled {
		rs, err := history.NewRedisStore(ctx, history.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Capacity:  cfg.Analysis.HistoryCapacity,
		})
		if err != nil {
			c.Close(logger)
			return nil, err
		}
		c.history = rs
		c.closers = append(c.closers, rs.Close)
		logger.Info("Using Redis price history", zap.String("addr", cfg.Redis.Addr))
	} else {
		c.history = history.NewMemoryStore(cfg.Analysis.HistoryCapacity)
	}

	c.symbols = service.NewWatchlistSymbols(db, cfg.Analysis.Symbols)
	c.analysis = service.NewAnalysisService(db, c.symbols, c.metrics, logger, cfg.Analysis.CandleLimit)
	c.aggregator = report.NewAggregator(c.symbols, c.analysis.AnalyzeSymbol, db, c.history, c.metrics, logger, report.Config{
		TTL:                  cfg.Analysis.ReportTTL,
		MinCorrelationPoints: cfg.Analysis.MinCorrelationPoints,
	})

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		c.analysis.SetPublisher(producer)
		c.aggregator.SetPublisher(producer)
		c.closers = append(c.closers, producer.Close)
	}

	return c, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close(logger)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewKlineConsumer(cfg.Kafka.Brokers, cfg.Kafka.KlineTopic, cfg.Kafka.GroupID, c.db, c.metrics, logger)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error("Kline consumer stopped", zap.Error(err))
			}
		}()
	}

	sched := scheduler.New(logger)
	if cfg.Binance.Enabled {
		collector := binance.NewCollector(binance.NewClient(binance.Config{
			BaseURL:   cfg.Binance.BaseURL,
			APIKey:    cfg.Binance.APIKey,
			SecretKey: cfg.Binance.SecretKey,
			Interval:  cfg.Binance.Interval,
			Limit:     cfg.Binance.Limit,
		}), c.db, c.symbols, c.metrics, logger)

		err := sched.Add(scheduler.Job{
			Name: "collect",
			Spec: fmt.Sprintf("@every %s", cfg.Binance.CollectInterval),
			Run:  collector.CollectAll,
		})
		if err != nil {
			return err
		}
	}
	err = sched.Add(scheduler.Job{
		Name: "report",
		Spec: cfg.Analysis.ReportSchedule,
		Run: func(ctx context.Context) error {
			_, err := c.aggregator.Regenerate(ctx)
			return err
		},
	})
	if err != nil {
		return err
	}
	if cfg.Analysis.CandleRetention > 0 {
		err = sched.Add(scheduler.Job{
			Name: "prune",
			Spec: "@daily",
			Run: func(ctx context.Context) error {
				n, err := c.db.DeleteCandlesOlderThan(ctx, time.Now().Add(-cfg.Analysis.CandleRetention))
				if err != nil {
					return err
				}
				logger.Info("Pruned old candles", zap.Int64("deleted", n))
				return nil
			},
		})
		if err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	marketData := service.NewMarketDataService(c.db, c.symbols, logger)
	handler := api.NewHandler(c.analysis, c.aggregator, marketData, c.db, logger, cfg.Analysis.CandleLimit)
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           api.SetupRoutes(handler, c.metrics.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
