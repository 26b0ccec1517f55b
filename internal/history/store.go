// Package history keeps a bounded FIFO of recent prices per symbol.
// Appending past capacity evicts the oldest price. Correlation is computed
// from snapshots of these buffers.
package history

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultCapacity is the number of prices retained per symbol
const DefaultCapacity = 100

// Store is a keyed set of bounded price buffers.
// Append on one symbol is atomic with respect to its eviction.
type Store interface {
	Append(ctx context.Context, symbol string, price decimal.Decimal) error
	Snapshot(ctx context.Context) (map[string][]decimal.Decimal, error)
}

// PriceBuffer is a FIFO of at most capacity prices
type PriceBuffer struct {
	mu       sync.Mutex
	capacity int
	prices   []decimal.Decimal
}

// NewPriceBuffer creates an empty buffer. A non-positive capacity uses DefaultCapacity.
func NewPriceBuffer(capacity int) *PriceBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PriceBuffer{
		capacity: capacity,
		prices:   make([]decimal.Decimal, 0, capacity),
	}
}

// Append adds a price, evicting the oldest one when the buffer is full
func (b *PriceBuffer) Append(price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.prices) >= b.capacity {
		copy(b.prices, b.prices[1:])
		b.prices = b.prices[:len(b.prices)-1]
	}
	b.prices = append(b.prices, price)
}

// Prices returns a copy of the buffered prices, oldest first
func (b *PriceBuffer) Prices() []decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]decimal.Decimal, len(b.prices))
	copy(out, b.prices)
	return out
}

// Len returns the number of buffered prices
func (b *PriceBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.prices)
}

// MemoryStore keeps price buffers in process memory
type MemoryStore struct {
	capacity int

	mu      sync.RWMutex
	buffers map[string]*PriceBuffer
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		buffers:  make(map[string]*PriceBuffer),
	}
}

// Append adds a price to the symbol's buffer, creating it on first use
func (s *MemoryStore) Append(_ context.Context, symbol string, price decimal.Decimal) error {
	s.buffer(symbol).Append(price)
	return nil
}

func (s *MemoryStore) buffer(symbol string) *PriceBuffer {
	s.mu.RLock()
	b, ok := s.buffers[symbol]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buffers[symbol]; ok {
		return b
	}
	b = NewPriceBuffer(s.capacity)
	s.buffers[symbol] = b
	return b
}

// Snapshot copies every non-empty buffer
func (s *MemoryStore) Snapshot(_ context.Context) (map[string][]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]decimal.Decimal, len(s.buffers))
	for symbol, b := range s.buffers {
		if prices := b.Prices(); len(prices) > 0 {
			out[symbol] = prices
		}
	}
	return out, nil
}
