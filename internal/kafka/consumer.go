package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/market-analysis-service/internal/metrics"
	"github.com/trogers1052/market-analysis-service/internal/models"
	"go.uber.org/zap"
)

// CandleRepository defines the storage the consumer writes closed klines to
type CandleRepository interface {
	UpsertCandles(ctx context.Context, candles []models.Candle) error
	UpsertCurrentPrice(ctx context.Context, p *models.CurrentPrice) error
}

// consume outcomes, used as the metric label
const (
	resultStored  = "stored"
	resultIgnored = "ignored"
	resultInvalid = "invalid"
	resultError   = "error"
)

// KlineConsumer stores closed klines published by an upstream market data feed.
// Each KLINE_CLOSED event upserts the candle and records its close as the
// symbol's current price. Other event types are skipped.
type KlineConsumer struct {
	reader  *kafka.Reader
	repo    CandleRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewKlineConsumer creates a new Kafka consumer for kline events
func NewKlineConsumer(
	brokers []string,
	topic, groupID string,
	repo CandleRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *KlineConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &KlineConsumer{
		reader:  reader,
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Start consumes messages until ctx is cancelled
func (c *KlineConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting kline consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Kline consumer shutting down")
				return nil
			}
			c.logger.Error("Error reading message", zap.Error(err))
			continue
		}

		result, err := c.processMessage(ctx, msg)
		c.metrics.KlineEventsConsumed.WithLabelValues(result).Inc()
		if err != nil {
			c.logger.Warn("Error processing message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.String("result", result),
				zap.Error(err),
			)
		}
	}
}

// processMessage handles a single Kafka message and reports its outcome
func (c *KlineConsumer) processMessage(ctx context.Context, msg kafka.Message) (string, error) {
	var event models.KlineEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return resultInvalid, fmt.Errorf("failed to unmarshal kline event: %w", err)
	}

	if event.EventType != models.EventKlineClosed {
		c.logger.Debug("Ignoring event type", zap.String("event_type", event.EventType))
		return resultIgnored, nil
	}

	candle, err := event.Data.ToCandle()
	if err != nil {
		return resultInvalid, err
	}

	if err := c.repo.UpsertCandles(ctx, []models.Candle{candle}); err != nil {
		return resultError, fmt.Errorf("failed to save candle: %w", err)
	}

	price := &models.CurrentPrice{
		Symbol:    candle.Symbol,
		Price:     candle.Close,
		UpdatedAt: candle.CloseTime,
	}
	if err := c.repo.UpsertCurrentPrice(ctx, price); err != nil {
		return resultError, fmt.Errorf("failed to save current price: %w", err)
	}

	c.logger.Debug("Stored kline",
		zap.String("symbol", candle.Symbol),
		zap.Time("open_time", candle.OpenTime),
		zap.String("close", candle.Close.String()),
		zap.String("source", event.Source),
	)
	return resultStored, nil
}

// Close closes the Kafka consumer
func (c *KlineConsumer) Close() error {
	return c.reader.Close()
}
