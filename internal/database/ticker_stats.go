package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/market-analysis-service/internal/models"
)

// UpsertTickerStats stores the latest 24h ticker window for a symbol. An older
// update never overwrites a newer one.
func (db *DB) UpsertTickerStats(ctx context.Context, s *models.TickerStats) error {
	query := `
		INSERT INTO ticker_stats (
			symbol, open_price, high_price, low_price, last_price, volume, quote_volume,
			price_change, price_change_percent, trade_count, open_time, close_time, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			last_price = EXCLUDED.last_price,
			volume = EXCLUDED.volume,
			quote_volume = EXCLUDED.quote_volume,
			price_change = EXCLUDED.price_change,
			price_change_percent = EXCLUDED.price_change_percent,
			trade_count = EXCLUDED.trade_count,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			updated_at = EXCLUDED.updated_at
		WHERE ticker_stats.updated_at <= EXCLUDED.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query,
		s.Symbol, s.OpenPrice, s.HighPrice, s.LowPrice, s.LastPrice, s.Volume, s.QuoteVolume,
		s.PriceChange, s.PriceChangePercent, s.TradeCount,
		s.OpenTime.UTC(), s.CloseTime.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ticker stats for %s: %w", s.Symbol, err)
	}
	return nil
}

// GetTickerStats returns the stored 24h ticker window for a symbol
func (db *DB) GetTickerStats(ctx context.Context, symbol string) (*models.TickerStats, error) {
	query := `
		SELECT symbol, open_price, high_price, low_price, last_price, volume, quote_volume,
		       price_change, price_change_percent, trade_count, open_time, close_time, updated_at
		FROM ticker_stats
		WHERE symbol = $1
	`
	var s models.TickerStats
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(
		&s.Symbol, &s.OpenPrice, &s.HighPrice, &s.LowPrice, &s.LastPrice, &s.Volume, &s.QuoteVolume,
		&s.PriceChange, &s.PriceChangePercent, &s.TradeCount, &s.OpenTime, &s.CloseTime, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no ticker stats for %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker stats: %w", err)
	}
	s.OpenTime = s.OpenTime.UTC()
	s.CloseTime = s.CloseTime.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
