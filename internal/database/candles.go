package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/market-analysis-service/internal/models"
)

const candleColumns = `symbol, open_time, close_time, open, high, low, close, volume`

// UpsertCandles stores candles in one transaction, replacing any candle with
// the same symbol and open time
func (db *DB) UpsertCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (`+candleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, open_time) DO UPDATE SET
			close_time = EXCLUDED.close_time,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx,
			c.Symbol, c.OpenTime.UTC(), c.CloseTime.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert candle for %s at %s: %w", c.Symbol, c.OpenTime.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCandles returns the most recent limit candles for a symbol in ascending open time order
func (db *DB) GetCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM (
			SELECT ` + candleColumns + `
			FROM candles
			WHERE symbol = $1
			ORDER BY open_time DESC
			LIMIT $2
		) recent
		ORDER BY open_time ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get candles: %w", err)
	}
	defer rows.Close()

	candles := []models.Candle{}
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candles: %w", err)
	}
	return candles, nil
}

// GetLatestCandle returns the candle with the greatest open time for a symbol
func (db *DB) GetLatestCandle(ctx context.Context, symbol string) (*models.Candle, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM candles
		WHERE symbol = $1
		ORDER BY open_time DESC
		LIMIT 1
	`
	c, err := scanCandle(db.conn.QueryRowContext(ctx, query, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no candles for %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCandlesOlderThan removes candles that opened before cutoff
func (db *DB) DeleteCandlesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM candles WHERE open_time < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old candles: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandle(row rowScanner) (models.Candle, error) {
	var c models.Candle
	err := row.Scan(&c.Symbol, &c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		return c, err
	}
	if err != nil {
		return c, fmt.Errorf("failed to scan candle: %w", err)
	}
	c.OpenTime = c.OpenTime.UTC()
	c.CloseTime = c.CloseTime.UTC()
	return c, nil
}
