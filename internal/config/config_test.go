package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "market_analysis", cfg.Database.DBName)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 60, cfg.Binance.Limit)
	assert.Equal(t, "1m", cfg.Binance.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.ReportTTL)
	assert.Equal(t, 100, cfg.Analysis.HistoryCapacity)
	assert.Equal(t, 30, cfg.Analysis.MinCorrelationPoints)
	assert.Equal(t, "@every 1h", cfg.Analysis.ReportSchedule)
	assert.Equal(t, 7*24*time.Hour, cfg.Analysis.CandleRetention)
	assert.Contains(t, cfg.Analysis.Symbols, "BTCUSDT")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("ANALYSIS_SYMBOLS", "BTCUSDT,,ETHUSDT ")
	t.Setenv("ANALYSIS_REPORT_TTL", "90s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Analysis.Symbols)
	assert.Equal(t, 90*time.Second, cfg.Analysis.ReportTTL)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("BINANCE_LIMIT", "sixty")
	t.Setenv("BINANCE_COLLECT_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Binance.Limit)
	assert.Equal(t, time.Minute, cfg.Binance.CollectInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "Level"},
		{"lowercase symbol", map[string]string{"ANALYSIS_SYMBOLS": "btcusdt"}, "Symbols"},
		{"non numeric port", map[string]string{"SERVER_PORT": "http"}, "Port"},
		{"limit above exchange maximum", map[string]string{"BINANCE_LIMIT": "5000"}, "Limit"},
		{"correlation needs two points", map[string]string{"ANALYSIS_MIN_CORRELATION_POINTS": "1"}, "MinCorrelationPoints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "market", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/market?sslmode=disable", d.ConnectionString())
}
