package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Binance  BinanceConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `validate:"required,numeric"`
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host          string `validate:"required"`
	Port          string `validate:"required,numeric"`
	User          string `validate:"required"`
	Password      string
	DBName        string `validate:"required"`
	SSLMode       string `validate:"oneof=disable require verify-ca verify-full"`
	MigrationsURL string `validate:"required"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string `validate:"required_if=Enabled true,dive,hostname_port"`
	KlineTopic  string   `validate:"required_if=Enabled true"`
	EventsTopic string   `validate:"required_if=Enabled true"`
	GroupID     string   `validate:"required_if=Enabled true"`
}

// RedisConfig holds the shared price history store configuration
type RedisConfig struct {
	Enabled   bool
	Addr      string `validate:"required_if=Enabled true"`
	Password  string
	DB        int `validate:"gte=0"`
	KeyPrefix string
}

// BinanceConfig holds market data collection configuration
type BinanceConfig struct {
	Enabled         bool
	BaseURL         string
	APIKey          string
	SecretKey       string
	Interval        string        `validate:"required"`
	Limit           int           `validate:"gt=0,lte=1000"`
	CollectInterval time.Duration `validate:"gt=0"`
}

// AnalysisConfig tunes analysis and report generation
type AnalysisConfig struct {
	Symbols              []string      `validate:"dive,required,uppercase"`
	CandleLimit          int           `validate:"gt=0"`
	ReportTTL            time.Duration `validate:"gt=0"`
	HistoryCapacity      int           `validate:"gt=0"`
	MinCorrelationPoints int           `validate:"gte=2"`
	ReportSchedule       string        `validate:"required"`
	CandleRetention      time.Duration `validate:"gte=0"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "market_analysis"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MigrationsURL: getEnv("DB_MIGRATIONS_URL", "file://db/migrations"),
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
			Brokers:     getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			KlineTopic:  getEnv("KAFKA_KLINE_TOPIC", "market-klines"),
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "analysis-events"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "market-analysis-service"),
		},
		Redis: RedisConfig{
			Enabled:   getEnvBool("REDIS_ENABLED", false),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "analysis"),
		},
		Binance: BinanceConfig{
			Enabled:         getEnvBool("BINANCE_ENABLED", true),
			BaseURL:         getEnv("BINANCE_BASE_URL", ""),
			APIKey:          getEnv("BINANCE_API_KEY", ""),
			SecretKey:       getEnv("BINANCE_SECRET_KEY", ""),
			Interval:        getEnv("BINANCE_INTERVAL", "1m"),
			Limit:           getEnvInt("BINANCE_LIMIT", 60),
			CollectInterval: getEnvDuration("BINANCE_COLLECT_INTERVAL", time.Minute),
		},
		Analysis: AnalysisConfig{
			Symbols:              getEnvList("ANALYSIS_SYMBOLS", []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}),
			CandleLimit:          getEnvInt("ANALYSIS_CANDLE_LIMIT", 500),
			ReportTTL:            getEnvDuration("ANALYSIS_REPORT_TTL", 5*time.Minute),
			HistoryCapacity:      getEnvInt("ANALYSIS_HISTORY_CAPACITY", 100),
			MinCorrelationPoints: getEnvInt("ANALYSIS_MIN_CORRELATION_POINTS", 30),
			ReportSchedule:       getEnv("ANALYSIS_REPORT_SCHEDULE", "@every 1h"),
			CandleRetention:      getEnvDuration("ANALYSIS_CANDLE_RETENTION", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Address returns the HTTP listen address
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
