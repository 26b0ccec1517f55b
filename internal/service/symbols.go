package service

import (
	"context"
	"fmt"
	"slices"
)

// EnabledSymbolStore lists enabled watchlist symbols
type EnabledSymbolStore interface {
	GetEnabledSymbols(ctx context.Context) ([]string, error)
}

// WatchlistSymbols prefers the stored watchlist and falls back to a fixed
// list while the watchlist is empty.
type WatchlistSymbols struct {
	store    EnabledSymbolStore
	fallback []string
}

// NewWatchlistSymbols creates a provider. store may be nil.
func NewWatchlistSymbols(store EnabledSymbolStore, fallback []string) *WatchlistSymbols {
	return &WatchlistSymbols{store: store, fallback: slices.Clone(fallback)}
}

// Symbols returns the enabled watchlist, or the fallback list
func (w *WatchlistSymbols) Symbols(ctx context.Context) ([]string, error) {
	if w.store == nil {
		return slices.Clone(w.fallback), nil
	}

	symbols, err := w.store.GetEnabledSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	if len(symbols) == 0 {
		return slices.Clone(w.fallback), nil
	}
	return symbols, nil
}
