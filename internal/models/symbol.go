package models

import "time"

// MonitoredSymbol is a symbol in the analysis watchlist
type MonitoredSymbol struct {
	Symbol    string    `json:"symbol"`
	Enabled   bool      `json:"enabled"`
	Notes     string    `json:"notes,omitempty"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
