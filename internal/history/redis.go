package history

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisConfig configures the Redis backed store
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Capacity  int
}

// RedisStore keeps price buffers in Redis lists so several service
// instances share one history. Each append runs RPUSH and LTRIM in a
// MULTI/EXEC transaction.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	capacity int
}

// NewRedisStore connects to Redis and pings the server
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix, cfg.Capacity), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string, capacity int) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if prefix == "" {
		prefix = "analysis"
	}
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
	}
}

func (s *RedisStore) pricesKey(symbol string) string {
	return s.prefix + ":prices:" + symbol
}

func (s *RedisStore) symbolsKey() string {
	return s.prefix + ":symbols"
}

// Append pushes the price and trims the list to the newest capacity entries
func (s *RedisStore) Append(ctx context.Context, symbol string, price decimal.Decimal) error {
	key := s.pricesKey(symbol)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, price.String())
		pipe.LTrim(ctx, key, int64(-s.capacity), -1)
		pipe.SAdd(ctx, s.symbolsKey(), symbol)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append price for %s: %w", symbol, err)
	}
	return nil
}

// Snapshot reads every known symbol's list
func (s *RedisStore) Snapshot(ctx context.Context) (map[string][]decimal.Decimal, error) {
	symbols, err := s.client.SMembers(ctx, s.symbolsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list buffered symbols: %w", err)
	}

	cmds := make(map[string]*redis.StringSliceCmd, len(symbols))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, symbol := range symbols {
			cmds[symbol] = pipe.LRange(ctx, s.pricesKey(symbol), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read price buffers: %w", err)
	}

	out := make(map[string][]decimal.Decimal, len(symbols))
	for symbol, cmd := range cmds {
		raw := cmd.Val()
		if len(raw) == 0 {
			continue
		}
		prices := make([]decimal.Decimal, len(raw))
		for i, v := range raw {
			price, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("invalid buffered price %q for %s: %w", v, symbol, err)
			}
			prices[i] = price
		}
		out[symbol] = prices
	}
	return out, nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
