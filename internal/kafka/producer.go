package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/market-analysis-service/internal/models"
)

// reportKey partitions report events together
const reportKey = "report"

// messageWriter is the subset of kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing analysis events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishAnalysisCompleted publishes a per-symbol analysis, keyed by symbol
func (p *Producer) PublishAnalysisCompleted(ctx context.Context, a *models.KlineAnalysis) error {
	event := models.AnalysisEvent{
		EventType: models.EventAnalysisCompleted,
		Symbol:    a.Symbol,
		Analysis:  a,
		Timestamp: time.Now().UTC(),
	}
	return p.publish(ctx, a.Symbol, event)
}

// PublishReportGenerated publishes a regenerated cross-market report
func (p *Producer) PublishReportGenerated(ctx context.Context, r *models.AnalysisReport) error {
	event := models.ReportEvent{
		EventType: models.EventReportGenerated,
		Report:    r,
		Timestamp: time.Now().UTC(),
	}
	return p.publish(ctx, reportKey, event)
}

func (p *Producer) publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
