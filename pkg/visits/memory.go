package visits

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore implements an in-memory visit log. It is safe for
// concurrent use by multiple goroutines.
//
// MemoryStore keeps the cumulative counters and the truncated detail
// list in process memory, so everything is lost on restart. Use
// SQLiteStore or RedisStore when durability matters.
type MemoryStore struct {
	mu     sync.Mutex
	totals totals
	recent []Record // newest first, capped at RecentLimit
}

// NewMemoryStore creates an empty in-memory visit log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{totals: newTotals()}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	if rec.Route == "" || rec.IP == "" {
		return errors.New("visit record requires route and ip")
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals.add(rec)
	s.recent = append([]Record{rec}, s.recent...)
	if len(s.recent) > RecentLimit {
		s.recent = s.recent[:RecentLimit]
	}
	return nil
}

// Rollup implements Store.
func (s *MemoryStore) Rollup(_ context.Context, now time.Time) (Rollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail := make([]Record, len(s.recent))
	copy(detail, s.recent)
	return buildRollup(s.totals, detail, now), nil
}

// Close implements Store. It is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
