package events

import (
	"context"
	"sync"
)

// Sequencer hands out monotonically increasing sequence numbers per
// partition key so consumers can order checkout events within one cart
// partition.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// MemorySequencer keeps sequences in memory. Used when the service runs
// without Postgres; numbering restarts at 1 on process restart.
type MemorySequencer struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{last: make(map[string]int64)}
}

func (s *MemorySequencer) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[partitionKey]++
	return s.last[partitionKey], nil
}
