package usage

import (
	"context"
	"sync"
)

// MemoryLedger is a process-local, non-durable ledger. Counts are lost on restart
// and are not shared between processes.
type MemoryLedger struct {
	mu   sync.RWMutex
	data map[string]int
}

// NewMemoryLedger constructs an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{data: make(map[string]int)}
}

func (l *MemoryLedger) Used(ctx context.Context, token string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data[token], nil
}

func (l *MemoryLedger) Increment(ctx context.Context, token string, by int) (int, error) {
	if by < 0 {
		return 0, ErrInvalidIncrement
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[token] += by
	return l.data[token], nil
}

var _ Ledger = (*MemoryLedger)(nil)
