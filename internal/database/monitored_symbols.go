package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/market-analysis-service/internal/models"
)

// CreateMonitoredSymbol adds a symbol to the watchlist, updating it if present
func (db *DB) CreateMonitoredSymbol(ctx context.Context, m *models.MonitoredSymbol) error {
	query := `
		INSERT INTO monitored_symbols (symbol, enabled, notes, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING added_at
	`
	now := time.Now().UTC()
	var notes sql.NullString
	if m.Notes != "" {
		notes = sql.NullString{String: m.Notes, Valid: true}
	}

	err := db.conn.QueryRowContext(ctx, query, m.Symbol, m.Enabled, notes, now, now).Scan(&m.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to create monitored symbol: %w", err)
	}
	m.AddedAt = m.AddedAt.UTC()
	m.UpdatedAt = now
	return nil
}

// GetMonitoredSymbol retrieves one watchlist entry
func (db *DB) GetMonitoredSymbol(ctx context.Context, symbol string) (*models.MonitoredSymbol, error) {
	query := `
		SELECT symbol, enabled, notes, added_at, updated_at
		FROM monitored_symbols
		WHERE symbol = $1
	`
	m, err := scanMonitoredSymbol(db.conn.QueryRowContext(ctx, query, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: monitored symbol %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetAllMonitoredSymbols retrieves every watchlist entry ordered by symbol
func (db *DB) GetAllMonitoredSymbols(ctx context.Context) ([]*models.MonitoredSymbol, error) {
	query := `
		SELECT symbol, enabled, notes, added_at, updated_at
		FROM monitored_symbols
		ORDER BY symbol ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitored symbols: %w", err)
	}
	defer rows.Close()

	symbols := []*models.MonitoredSymbol{}
	for rows.Next() {
		m, err := scanMonitoredSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, m)
	}
	return symbols, rows.Err()
}

// GetEnabledSymbols returns just the enabled symbols
func (db *DB) GetEnabledSymbols(ctx context.Context) ([]string, error) {
	query := `
		SELECT symbol
		FROM monitored_symbols
		WHERE enabled = true
		ORDER BY symbol ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// DeleteMonitoredSymbol removes a symbol from the watchlist
func (db *DB) DeleteMonitoredSymbol(ctx context.Context, symbol string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM monitored_symbols WHERE symbol = $1`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete monitored symbol: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: monitored symbol %s", ErrNotFound, symbol)
	}
	return nil
}

func scanMonitoredSymbol(row rowScanner) (*models.MonitoredSymbol, error) {
	var m models.MonitoredSymbol
	var notes sql.NullString

	err := row.Scan(&m.Symbol, &m.Enabled, &notes, &m.AddedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan monitored symbol: %w", err)
	}

	if notes.Valid {
		m.Notes = notes.String
	}
	m.AddedAt = m.AddedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}
