package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/market-analysis-service/internal/models"
)

// UpsertCurrentPrice stores the latest price for a symbol. An older update
// never overwrites a newer one.
func (db *DB) UpsertCurrentPrice(ctx context.Context, p *models.CurrentPrice) error {
	query := `
		INSERT INTO current_prices (symbol, price, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at
		WHERE current_prices.updated_at <= EXCLUDED.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query, p.Symbol, p.Price, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert current price for %s: %w", p.Symbol, err)
	}
	return nil
}

// GetCurrentPrice returns the latest stored price for a symbol
func (db *DB) GetCurrentPrice(ctx context.Context, symbol string) (*models.CurrentPrice, error) {
	query := `
		SELECT symbol, price, updated_at
		FROM current_prices
		WHERE symbol = $1
	`
	var p models.CurrentPrice
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(&p.Symbol, &p.Price, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no current price for %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current price: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
